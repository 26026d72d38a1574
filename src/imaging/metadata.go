package imaging

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// InfoField is one raw key/value pair from the host's image info dump.
type InfoField struct {
	Key   string
	Value string
}

// MetadataField is one cleaned, report-ready microscope parameter.
type MetadataField struct {
	Name  string
	Value string
}

// wantedMetadata filters the host's property soup down to the acquisition
// parameters worth reporting. Raw keys are matched by substring because the
// host prefixes them with per-channel paths.
var wantedMetadata = []struct {
	contains string
	clean    string
}{
	{"Image_Height", "Image_Height"},
	{"DisplaySetting|Channel|DyeName", "DyeName"},
	{"Information|Image|Channel|EmissionWavelength", "EmissionWavelength"},
	{"Information|Image|Channel|ExcitationWavelength", "ExcitationWavelength"},
}

// ParseInfo reads an image info sidecar: one "key = value" pair per line.
// Lines without a separator and blank lines are skipped.
func ParseInfo(r io.Reader) ([]InfoField, error) {
	var fields []InfoField
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if key == "" {
			continue
		}
		fields = append(fields, InfoField{Key: key, Value: value})
	}
	return fields, scanner.Err()
}

// CollectMetadata builds the report metadata table: the decoded image height
// first, then every wanted parameter found among the raw fields. A field
// whose value still carries an embedded "key = value" is split once and the
// right side kept (the host serializes nested properties that way). A later
// occurrence of the same clean name overwrites the earlier value.
func CollectMetadata(imageHeight int, fields []InfoField) []MetadataField {
	out := []MetadataField{{Name: "Image_Height", Value: strconv.Itoa(imageHeight)}}
	index := map[string]int{"Image_Height": 0}
	for _, f := range fields {
		for _, w := range wantedMetadata {
			if !strings.Contains(f.Key, w.contains) {
				continue
			}
			value := f.Value
			if eq := strings.Index(value, "="); eq >= 0 {
				value = strings.TrimSpace(value[eq+1:])
			}
			if i, ok := index[w.clean]; ok {
				out[i].Value = value
			} else {
				index[w.clean] = len(out)
				out = append(out, MetadataField{Name: w.clean, Value: value})
			}
			break
		}
	}
	return out
}
