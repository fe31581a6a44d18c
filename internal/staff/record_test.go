package staff

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func geometryXML(root string, h, s int, rotation float64, gradient string, starts ...int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s><filename>page.png</filename><model>", root)
	fmt.Fprintf(&b, "<staff_height>%d</staff_height><staff_space>%d</staff_space>", h, s)
	fmt.Fprintf(&b, "<column>5</column><row>7</row><rotation>%f</rotation>", rotation)
	fmt.Fprintf(&b, "<gradient>%s</gradient></model><staffs>", gradient)
	for _, st := range starts {
		fmt.Fprintf(&b, "<staff>%d</staff>", st)
	}
	fmt.Fprintf(&b, "</staffs></%s>", root)
	return b.String()
}

func zeros(n int) string {
	return strings.TrimSpace(strings.Repeat("0 ", n))
}

func TestParseGeometry(t *testing.T) {
	for _, root := range RootTags {
		g, err := ParseGeometry(strings.NewReader(geometryXML(root, 2, 10, 1.570796, zeros(160), 0, 200)))
		if err != nil {
			t.Fatalf("ParseGeometry(%s) error = %v", root, err)
		}
		if g.Filename != "page.png" {
			t.Errorf("Filename = %q, want page.png", g.Filename)
		}
		if g.StaffHeight != 2 || g.StaffSpace != 10 {
			t.Errorf("StaffHeight, StaffSpace = %d, %d, want 2, 10", g.StaffHeight, g.StaffSpace)
		}
		if g.Col != 5 || g.Row != 7 {
			t.Errorf("Col, Row = %d, %d, want 5, 7", g.Col, g.Row)
		}
		if len(g.Gradient) != 160 {
			t.Errorf("len(Gradient) = %d, want 160", len(g.Gradient))
		}
		if len(g.Starts) != 2 || g.Starts[1] != 200 {
			t.Errorf("Starts = %v, want [0 200]", g.Starts)
		}
	}
}

func TestParseGeometry_FormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		xml   string
		field string
	}{
		{"wrong root", geometryXML("annotation", 2, 10, 1.57, zeros(10), 0), "root"},
		{"bad height", strings.Replace(geometryXML("stav", 2, 10, 1.57, zeros(10), 0),
			"<staff_height>2<", "<staff_height>two<", 1), "model.staff_height"},
		{"bad staff", strings.Replace(geometryXML("stav", 2, 10, 1.57, zeros(10), 0),
			"<staff>0</staff>", "<staff>x</staff>", 1), "staffs[0]"},
		{"zero space", geometryXML("stav", 2, 0, 1.57, zeros(10), 0), "model.staff_space"},
		{"empty model", geometryXML("stav", 2, 10, 1.57, "", 0), "model.gradient"},
		{"missing children", "<stav><filename>x</filename></stav>", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeometry(strings.NewReader(tt.xml))
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("ParseGeometry() error = %v, want ErrFormat", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("error %T is not *FormatError", err)
			}
			if fe.Field != tt.field {
				t.Errorf("Field = %q, want %q", fe.Field, tt.field)
			}
		})
	}
}

func TestParseGeometry_GeometryErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"rotated", geometryXML("stav", 2, 10, 1.3, zeros(10), 0)},
		{"curved", geometryXML("stav", 2, 10, 1.57, "0 0 0.5 0", 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeometry(strings.NewReader(tt.xml))
			if !errors.Is(err, ErrGeometry) {
				t.Errorf("ParseGeometry() error = %v, want ErrGeometry", err)
			}
		})
	}
}

func TestParseGeometry_RotationTolerance(t *testing.T) {
	if _, err := ParseGeometry(strings.NewReader(geometryXML("stav", 2, 10, 1.65, zeros(10), 0))); err != nil {
		t.Errorf("ParseGeometry() within tolerance error = %v", err)
	}
}
