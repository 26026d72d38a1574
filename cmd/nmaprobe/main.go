// nmaprobe opens a minimal window to verify the display stack works before
// running the tracer on a new lab machine (headless boxes and missing GL
// drivers fail here with a readable error instead of inside a session).
package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/widget"
)

func main() {
	fmt.Println("[nmaprobe] starting minimal window test")
	a := app.New()
	w := a.NewWindow("NMA Probe")
	w.SetContent(widget.NewLabel("Display stack works - nmatracer will run here. Closing in 5s"))
	go func() {
		time.Sleep(5 * time.Second)
		fmt.Println("[nmaprobe] closing window via fyne.Do")
		fyne.Do(func() { w.Close() })
	}()
	w.ShowAndRun()
	fmt.Println("[nmaprobe] exited cleanly")
}
