package publish

import (
	"TCPSpectra/internal/model"
	"reflect"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

func testReport() *model.Report {
	return &model.Report{
		RunID:         "3f0c",
		GeneratedAt:   time.Date(2025, 3, 1, 12, 30, 0, 500, time.UTC),
		WindowSeconds: 5,
		DelayMode:     "cumulative",
		Metrics: []model.AlgorithmMetrics{
			{Label: "Reno", ThroughputMbps: 5, MeanDelaySeconds: 2},
			{Label: "Vegas", ThroughputMbps: 4, MeanDelaySeconds: 1},
		},
		Fairness: model.FairnessResult{Index: 81.0 / 82.0},
		Excluded: []model.ExcludedAlgorithm{{Label: "Cubic", Reason: "missing flow data"}},
	}
}

func TestEncode_Fields(t *testing.T) {
	s, err := Encode(testReport())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got := s.Fields["run_id"].GetStringValue(); got != "3f0c" {
		t.Errorf("Expected run_id 3f0c, got %q", got)
	}
	metrics := s.Fields["metrics"].GetListValue().GetValues()
	if len(metrics) != 2 {
		t.Fatalf("Expected 2 metric rows, got %d", len(metrics))
	}
	row := metrics[0].GetStructValue().GetFields()
	if row["algorithm"].GetStringValue() != "Reno" || row["throughput_mbps"].GetNumberValue() != 5 {
		t.Errorf("Unexpected first row: %v", row)
	}
	if got := s.Fields["fairness"].GetStructValue().GetFields()["index"].GetNumberValue(); got != 81.0/82.0 {
		t.Errorf("Expected fairness %v, got %v", 81.0/82.0, got)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	want := testReport()
	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Report changed on the wire:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestDecode_WrongShape(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"metrics": "not a list"})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	if _, err := Decode(s); err == nil {
		t.Fatal("Expected an error for a report with malformed metrics")
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("Expected an error for bytes that are not a protobuf Struct")
	}
}
