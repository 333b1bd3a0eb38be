package telemetry

import (
	"reflect"
	"testing"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		payload     string
		expected    Event
		expectError bool
	}{
		{
			name:    "Valid ppg burst",
			topic:   "W1/2/ppg",
			payload: "60,61,62",
			expected: Event{
				Bed:       BedKey{WardNo: "W1", BedNo: "2"},
				Parameter: "ppg",
				Fields:    []string{"60", "61", "62"},
			},
		},
		{
			name:    "Valid patientDetails",
			topic:   "W1/2/patientDetails",
			payload: "123458,John Doe,M,45,100,140,90,55,135,10.0.0.5",
			expected: Event{
				Bed:       BedKey{WardNo: "W1", BedNo: "2"},
				Parameter: "patientDetails",
				Fields: []string{
					"123458", "John Doe", "M", "45", "100",
					"140", "90", "55", "135", "10.0.0.5",
				},
			},
		},
		{
			name:    "Valid single heart rate",
			topic:   "W3/12/HR",
			payload: "72",
			expected: Event{
				Bed:       BedKey{WardNo: "W3", BedNo: "12"},
				Parameter: "HR",
				Fields:    []string{"72"},
			},
		},
		{
			name:        "Too few segments",
			topic:       "W1/ppg",
			payload:     "60",
			expectError: true,
		},
		{
			name:        "Too many segments",
			topic:       "W1/2/ppg/extra",
			payload:     "60",
			expectError: true,
		},
		{
			name:        "Unknown parameter",
			topic:       "W1/2/temperature",
			payload:     "36.6",
			expectError: true,
		},
		{
			name:        "Parameter is case sensitive",
			topic:       "W1/2/PPG",
			payload:     "60",
			expectError: true,
		},
		{
			name:        "Empty ward segment",
			topic:       "/2/ppg",
			payload:     "60",
			expectError: true,
		},
		{
			name:        "Empty bed segment",
			topic:       "W1//ppg",
			payload:     "60",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseTopic(tt.topic, []byte(tt.payload))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(ev, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, ev)
			}
		})
	}
}

func TestBedKeyString(t *testing.T) {
	key := BedKey{WardNo: "W1", BedNo: "2"}
	if key.String() != "W1/2" {
		t.Errorf("Expected W1/2, got %s", key.String())
	}
}
