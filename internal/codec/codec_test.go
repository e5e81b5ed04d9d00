package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"bimsight/internal/domain"
)

const metroJSON = `{
  "project": {"name": "Projeto Metro SP", "version": "1.0"},
  "elements": {
    "walls": [
      {"id": "wall_1", "name": "Parede Norte",
       "geometry": {"start": [100, 100], "end": [400, 100]},
       "expected_position": [250, 100]},
      {"id": "wall_2", "name": "Parede Leste",
       "geometry": {"start": [400, 100, 0], "end": [400, 300, 0]}}
    ],
    "beams": [
      {"id": "beam_1", "name": "Viga Norte",
       "geometry": {"points": [[100, 100], [300, 100], [300, 200], [100, 200]]},
       "properties": {"material": "steel"}}
    ],
    "others": [
      {"id": "col_1", "type": "IfcColumn", "expected_position": [10, 10]},
      {"id": "w_3", "type": "IfcWallStandardCase", "expected_position": [5, 5]}
    ]
  }
}`

const metroYAML = `
project:
  name: Projeto Metro SP
elements:
  walls:
    - id: wall_1
      geometry:
        start: [100, 100]
        end: [400, 100]
      expected_position: [250, 100]
  beams:
    - id: beam_1
      geometry:
        points: [[100, 100], [300, 100], [300, 200], [100, 200]]
`

func TestForFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"json", "json"},
		{".JSON", "json"},
		{"yaml", "yaml"},
		{".yml", "yaml"},
	}
	for _, tt := range tests {
		c, err := ForFormat(tt.in)
		if err != nil {
			t.Errorf("ForFormat(%q) error: %v", tt.in, err)
			continue
		}
		if c.Format() != tt.want {
			t.Errorf("ForFormat(%q).Format() = %s, want %s", tt.in, c.Format(), tt.want)
		}
	}

	_, err := ForPath("model.ifc")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown model format")
}

func TestJSONParseRecords(t *testing.T) {
	doc, err := NewJSONCodec().Parse(strings.NewReader(metroJSON))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, doc.Project.Name, test.ShouldEqual, "Projeto Metro SP")
	test.That(t, doc.Len(), test.ShouldEqual, 5)

	records := doc.Records()
	test.That(t, len(records), test.ShouldEqual, 5)

	wall1 := records[0]
	test.That(t, wall1.Category, test.ShouldEqual, domain.CategoryWall)
	test.That(t, *wall1.ExpectedPosition, test.ShouldResemble, domain.NewPoint(250, 100))
	test.That(t, wall1.Geometry, test.ShouldResemble, []domain.Point{domain.NewPoint(100, 100), domain.NewPoint(400, 100)})

	// z is dropped
	wall2 := records[1]
	test.That(t, wall2.ExpectedPosition, test.ShouldBeNil)
	test.That(t, wall2.Geometry[1], test.ShouldResemble, domain.NewPoint(400, 300))

	beam := records[2]
	test.That(t, beam.Category, test.ShouldEqual, domain.CategoryBeam)
	test.That(t, len(beam.Geometry), test.ShouldEqual, 4)
	test.That(t, beam.Properties["material"], test.ShouldEqual, "steel")

	test.That(t, records[3].Category, test.ShouldEqual, domain.CategoryOther)
	test.That(t, records[4].Category, test.ShouldEqual, domain.CategoryWall)
}

func TestYAMLMatchesJSON(t *testing.T) {
	fromYAML, err := NewYAMLCodec().Parse(strings.NewReader(metroYAML))
	test.That(t, err, test.ShouldBeNil)

	records := fromYAML.Records()
	test.That(t, len(records), test.ShouldEqual, 2)
	test.That(t, *records[0].ExpectedPosition, test.ShouldResemble, domain.NewPoint(250, 100))
	test.That(t, records[1].Geometry[2], test.ShouldResemble, domain.NewPoint(300, 200))
}

func TestYAMLEmptyDocument(t *testing.T) {
	doc, err := NewYAMLCodec().Parse(strings.NewReader(""))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, doc.Len(), test.ShouldEqual, 0)
}

func TestParseErrors(t *testing.T) {
	_, err := NewJSONCodec().Parse(strings.NewReader("{"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewYAMLCodec().Parse(strings.NewReader("elements: [\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMalformedCoordinates(t *testing.T) {
	doc := &ModelDocument{Elements: ElementSet{Walls: []ElementDoc{
		{ID: "short", ExpectedPosition: Coord{1}},
		{ID: "half segment", Geometry: &GeometryDoc{Start: Coord{1, 2}}},
	}}}

	records := doc.Records()
	test.That(t, records[0].ExpectedPosition, test.ShouldBeNil)
	test.That(t, records[1].Geometry, test.ShouldBeNil)
}

func TestExportRoundTrip(t *testing.T) {
	elems := []domain.ReferenceElement{
		{
			ID: "w1", Category: domain.CategoryWall, Expected: domain.NewPoint(250, 100),
			Geometry: []domain.Point{domain.NewPoint(100, 100), domain.NewPoint(400, 100)},
		},
		{
			ID: "b1", Category: domain.CategoryBeam, Expected: domain.NewPoint(200, 150),
			Geometry: []domain.Point{
				domain.NewPoint(100, 100), domain.NewPoint(300, 100),
				domain.NewPoint(300, 200), domain.NewPoint(100, 200),
			},
		},
		{ID: "c1", Category: domain.CategoryOther, Expected: domain.NewPoint(1, 2)},
	}
	doc := DocumentFromElements(ProjectInfo{Name: "site"}, elems)

	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			test.That(t, c.Export(doc, &buf), test.ShouldBeNil)

			parsed, err := c.Parse(&buf)
			test.That(t, err, test.ShouldBeNil)
			if diff := cmp.Diff(doc.Records(), parsed.Records()); diff != "" {
				t.Errorf("records differ after %s round trip (-want +got):\n%s", c.Format(), diff)
			}
		})
	}
}

func TestDecodeFrames(t *testing.T) {
	input := `[
	  {"frame": 0, "detections": [
	    {"class": "person", "confidence": 0.91, "position": {"x": 120, "y": 80}},
	    {"class": "chair", "confidence": 0.55, "box": {"x1": 100, "y1": 100, "x2": 200, "y2": 300}}
	  ]},
	  {"frame": 1}
	]`

	frames, err := DecodeFrames(strings.NewReader(input))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 2)
	test.That(t, frames[0].Detections[0].Position, test.ShouldResemble, domain.NewPoint(120, 80))
	test.That(t, frames[0].Detections[1].Position, test.ShouldResemble, domain.NewPoint(150, 200))
	test.That(t, frames[1].Index, test.ShouldEqual, 1)
	test.That(t, frames[1].Detections, test.ShouldNotBeNil)
	test.That(t, len(frames[1].Detections), test.ShouldEqual, 0)
}

func TestDecodeFramesKeepsOriginPosition(t *testing.T) {
	input := `[{"frame": 0, "detections": [
	  {"class": "wall", "confidence": 0.9, "position": {"x": 0, "y": 0}, "box": {"x1": -10, "y1": 20, "x2": 30, "y2": 60}}
	]}]`

	frames, err := DecodeFrames(strings.NewReader(input))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames[0].Detections[0].Position, test.ShouldResemble, domain.NewPoint(0, 0))
	test.That(t, frames[0].Detections[0].Box, test.ShouldNotBeNil)
}

func TestDecodeBareDetectionList(t *testing.T) {
	frames, err := DecodeFrames(strings.NewReader(`[{"class": "wall", "position": {"x": 1, "y": 2}}]`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 1)
	test.That(t, frames[0].Detections[0].Class, test.ShouldEqual, "wall")
}

func TestDecodeFramesInvalid(t *testing.T) {
	_, err := DecodeFrames(strings.NewReader(`{"frame": 0}`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEncodeFrames(t *testing.T) {
	frames := []domain.Frame{{Index: 3, Detections: []domain.Detection{
		domain.NewDetection("beam", 0.8, domain.NewPoint(10, 20)),
	}}}

	var buf bytes.Buffer
	test.That(t, EncodeFrames(frames, &buf), test.ShouldBeNil)

	decoded, err := DecodeFrames(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded, test.ShouldResemble, frames)
}
