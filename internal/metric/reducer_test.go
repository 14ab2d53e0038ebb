package metric

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func observation(label string, rxBytes uint64, delaySeconds float64) model.LabeledObservation {
	return model.LabeledObservation{
		Label: label,
		Observation: model.FlowObservation{
			TxBytes:         rxBytes,
			RxBytes:         rxBytes,
			RxPackets:       1000,
			DelaySumSeconds: delaySeconds,
		},
	}
}

func TestThroughputMbps(t *testing.T) {
	if got := ThroughputMbps(3125000, 5); got != 5.0 {
		t.Errorf("Expected 5.0 Mbps, got %v", got)
	}
	if got := ThroughputMbps(0, 5); got != 0 {
		t.Errorf("Expected 0 Mbps, got %v", got)
	}
	if got := ThroughputMbps(1250000, 10); got != 1.0 {
		t.Errorf("Expected 1.0 Mbps, got %v", got)
	}
}

func TestReduce_EndToEnd(t *testing.T) {
	obs := []model.LabeledObservation{
		observation("Reno", 3125000, 2.0),
		observation("Vegas", 2500000, 1.25),
		observation("Cubic", 3750000, 3.5),
		observation("BBR", 1875000, 0.75),
	}

	res, err := Reduce(obs, Config{WindowSeconds: 5})
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}

	wantLabels := []string{"Reno", "Vegas", "Cubic", "BBR"}
	wantTput := []float64{5.0, 4.0, 6.0, 3.0}
	wantDelay := []float64{2.0, 1.25, 3.5, 0.75}
	if len(res.Metrics) != len(wantLabels) {
		t.Fatalf("Expected %d rows, got %d", len(wantLabels), len(res.Metrics))
	}
	for i, m := range res.Metrics {
		if m.Label != wantLabels[i] {
			t.Errorf("Row %d: expected label %s, got %s", i, wantLabels[i], m.Label)
		}
		if m.ThroughputMbps != wantTput[i] {
			t.Errorf("Row %d: expected throughput %v, got %v", i, wantTput[i], m.ThroughputMbps)
		}
		if m.MeanDelaySeconds != wantDelay[i] {
			t.Errorf("Row %d: expected delay %v, got %v", i, wantDelay[i], m.MeanDelaySeconds)
		}
	}

	wantIndex := 324.0 / 344.0
	if res.Fairness.Index != wantIndex {
		t.Errorf("Expected fairness %v, got %v", wantIndex, res.Fairness.Index)
	}
	if math.Abs(res.Fairness.Index-0.9419) > 1e-4 {
		t.Errorf("Expected fairness ~0.9419, got %v", res.Fairness.Index)
	}
}

func TestReduce_PerPacketDelay(t *testing.T) {
	obs := []model.LabeledObservation{observation("Reno", 3125000, 2.0)}
	res, err := Reduce(obs, Config{WindowSeconds: 5, DelayMode: config.DelayModePerPacket})
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if got := res.Metrics[0].MeanDelaySeconds; got != 0.002 {
		t.Errorf("Expected per-packet delay 0.002, got %v", got)
	}

	noPackets := []model.LabeledObservation{{Label: "Vegas", Observation: model.FlowObservation{RxBytes: 10}}}
	if _, err := Reduce(noPackets, Config{WindowSeconds: 5, DelayMode: config.DelayModePerPacket}); !errors.Is(err, ErrNoPackets) {
		t.Errorf("Expected ErrNoPackets, got %v", err)
	}
}

func TestReduce_Errors(t *testing.T) {
	obs := []model.LabeledObservation{observation("Reno", 3125000, 2.0)}

	if _, err := Reduce(nil, Config{WindowSeconds: 5}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	for _, w := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := Reduce(obs, Config{WindowSeconds: w}); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Window %v: expected ErrInvalidWindow, got %v", w, err)
		}
	}

	zeros := []model.LabeledObservation{observation("Reno", 0, 1), observation("Vegas", 0, 1)}
	res, err := Reduce(zeros, Config{WindowSeconds: 5})
	if !errors.Is(err, ErrDegenerateFairness) {
		t.Errorf("Expected ErrDegenerateFairness, got %v", err)
	}
	if res.Metrics != nil {
		t.Errorf("Expected no metrics on error, got %+v", res.Metrics)
	}

	if _, err := Reduce(obs, Config{WindowSeconds: 5, DelayMode: "median"}); err == nil {
		t.Error("Expected an error for an unknown delay mode")
	}
}

func TestJainIndex_Bounds(t *testing.T) {
	equal, err := JainIndex([]float64{5, 5, 5, 5})
	if err != nil {
		t.Fatalf("JainIndex failed: %v", err)
	}
	if equal != 1.0 {
		t.Errorf("Expected 1.0 for equal throughputs, got %v", equal)
	}

	single, err := JainIndex([]float64{7.3, 0, 0, 0})
	if err != nil {
		t.Fatalf("JainIndex failed: %v", err)
	}
	if single != 0.25 {
		t.Errorf("Expected 0.25 for one active flow of four, got %v", single)
	}

	one, err := JainIndex([]float64{0.001})
	if err != nil {
		t.Fatalf("JainIndex failed: %v", err)
	}
	if one != 1.0 {
		t.Errorf("Expected 1.0 for a single flow, got %v", one)
	}

	if _, err := JainIndex(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := JainIndex([]float64{0, 0, 0}); !errors.Is(err, ErrDegenerateFairness) {
		t.Errorf("Expected ErrDegenerateFairness, got %v", err)
	}
}

func TestJainIndex_OrderIndependent(t *testing.T) {
	values := []float64{5.0, 4.0, 6.0, 3.0, 0.125, 9.5}
	want, err := JainIndex(values)
	if err != nil {
		t.Fatalf("JainIndex failed: %v", err)
	}

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		shuffled := append([]float64(nil), values...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := JainIndex(shuffled)
		if err != nil {
			t.Fatalf("JainIndex failed: %v", err)
		}
		if got != want {
			t.Fatalf("Permutation %v: expected %v, got %v", shuffled, want, got)
		}
	}
}

func TestReduce_Deterministic(t *testing.T) {
	obs := []model.LabeledObservation{
		observation("Reno", 3125000, 2.0),
		observation("Vegas", 2500000, 1.25),
	}
	first, err := Reduce(obs, Config{WindowSeconds: 5})
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	second, err := Reduce(obs, Config{WindowSeconds: 5})
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if first.Fairness != second.Fairness {
		t.Errorf("Expected identical fairness, got %v and %v", first.Fairness, second.Fairness)
	}
	for i := range first.Metrics {
		if first.Metrics[i] != second.Metrics[i] {
			t.Errorf("Row %d differs: %+v vs %+v", i, first.Metrics[i], second.Metrics[i])
		}
	}
}

func TestReduce_ExtremeWindows(t *testing.T) {
	cases := []struct {
		name   string
		rx     []uint64
		window float64
	}{
		{"tiny window", []uint64{1000000, 2000000}, 1e-300},
		{"huge window", []uint64{1, 2}, 1e160},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := []model.LabeledObservation{
				observation("Reno", tc.rx[0], 1),
				observation("Vegas", tc.rx[1], 1),
			}
			res, err := Reduce(obs, Config{WindowSeconds: tc.window})
			if err != nil {
				t.Fatalf("Reduce failed: %v", err)
			}
			// {x, 2x}: 9x² / (2 · 5x²)
			if math.Abs(res.Fairness.Index-0.9) > 1e-12 {
				t.Errorf("Expected fairness 0.9, got %v", res.Fairness.Index)
			}
		})
	}
}

func TestReduce_ThroughputOverflow(t *testing.T) {
	obs := []model.LabeledObservation{observation("Reno", 1000000, 1)}
	if _, err := Reduce(obs, Config{WindowSeconds: 1e-310}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("Expected ErrInvalidWindow for an overflowing throughput, got %v", err)
	}
}

func TestJainIndex_ScaleInvariant(t *testing.T) {
	want, err := JainIndex([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("JainIndex failed: %v", err)
	}
	for _, values := range [][]float64{
		{0x1p1000, 0x1p1001, 3 * 0x1p1000},
		{0x1p-1000, 0x1p-999, 3 * 0x1p-1000},
	} {
		got, err := JainIndex(values)
		if err != nil {
			t.Fatalf("JainIndex(%v) failed: %v", values, err)
		}
		if got != want {
			t.Errorf("JainIndex(%v) = %v, want %v", values, got, want)
		}
	}
}

func TestJainIndex_InvalidInput(t *testing.T) {
	for _, values := range [][]float64{
		{math.Inf(1), 1},
		{math.NaN(), 1},
		{-1, 2},
	} {
		if _, err := JainIndex(values); err == nil {
			t.Errorf("Expected an error for %v", values)
		}
	}
}
