package practicum

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		homes   int
		cursor  int64
	}{
		{
			name:   "full report",
			raw:    `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1700000000}`,
			homes:  1,
			cursor: 1700000000,
		},
		{
			name:  "empty list is valid",
			raw:   `{"homeworks":[],"current_date":5}`,
			homes: 0, cursor: 5,
		},
		{
			name:  "missing current_date",
			raw:   `{"homeworks":[{"homework_name":"hw","status":"reviewing"}]}`,
			homes: 1, cursor: 0,
		},
		{
			name:  "non-integer current_date ignored",
			raw:   `{"homeworks":[],"current_date":"soon"}`,
			homes: 0, cursor: 0,
		},
		{name: "top-level array", raw: `[{"homework_name":"hw"}]`, wantErr: true},
		{name: "top-level string", raw: `"nope"`, wantErr: true},
		{name: "missing homeworks key", raw: `{"current_date":1}`, wantErr: true},
		{name: "homeworks not a list", raw: `{"homeworks":{"homework_name":"hw"}}`, wantErr: true},
		{name: "homeworks wrong element type", raw: `{"homeworks":[42]}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rep, err := Validate(json.RawMessage(tt.raw))
			if tt.wantErr {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Fatalf("error = %v, want *SchemaError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if len(rep.Homeworks) != tt.homes {
				t.Fatalf("len(Homeworks) = %d, want %d", len(rep.Homeworks), tt.homes)
			}
			if rep.CurrentDate != tt.cursor {
				t.Fatalf("CurrentDate = %d, want %d", rep.CurrentDate, tt.cursor)
			}
		})
	}
}

func TestValidateKeepsRecordFields(t *testing.T) {
	t.Parallel()
	raw := `{"homeworks":[{"homework_name":"final project","status":"rejected","lesson_name":"go"}]}`
	rep, err := Validate(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	hw := rep.Homeworks[0]
	if hw.Name != "final project" || hw.Status != "rejected" || hw.Lesson != "go" {
		t.Fatalf("unexpected record: %+v", hw)
	}
}
