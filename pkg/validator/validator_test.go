package validator_test

import (
	"testing"

	"github.com/igraphixwebpreview/RoadReportHub/pkg/validator"
)

type point struct {
	Lat float64 `validate:"lat"`
	Lng float64 `validate:"lng"`
}

type report struct {
	Type string `validate:"required,incident_type"`
}

func TestValidateStruct_Coordinates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      point
		wantErr bool
	}{
		{"origin", point{0, 0}, false},
		{"bounds", point{-90, 180}, false},
		{"lat_over", point{90.0001, 0}, true},
		{"lng_under", point{0, -180.5}, true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := validator.ValidateStruct(c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("wantErr=%v got=%v", c.wantErr, err)
			}
		})
	}
}

func TestValidateStruct_Enums(t *testing.T) {
	t.Parallel()

	if err := validator.ValidateStruct(report{Type: "accident"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := validator.ValidateStruct(report{Type: "pothole"}); err == nil {
		t.Fatalf("expected error for unknown incident type")
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	type coords struct {
		Latitude  *float64 `validate:"required,lat"`
		Longitude *float64 `validate:"required,lng"`
	}
	far := 120.0
	zero := 0.0

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"missing coordinates", coords{}, "Latitude and longitude are required"},
		{"bad coordinates", coords{Latitude: &far, Longitude: &zero}, "Invalid coordinates"},
		{"bad type", report{Type: "pothole"}, "Type must be 'roadblock' or 'accident'"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := validator.ValidateStruct(c.in)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if got := validator.Message(err); got != c.want {
				t.Fatalf("got=%q want=%q", got, c.want)
			}
		})
	}
}
