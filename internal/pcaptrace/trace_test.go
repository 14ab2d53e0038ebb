package pcaptrace

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/flowmon"
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testSegment struct {
	srcPort uint16
	seq     uint32
	payload int
	at      time.Duration
}

// writeCapture serializes Ethernet/IPv4/TCP segments from 10.1.1.1 to 10.1.2.2:8080.
func writeCapture(t *testing.T, segments []testSegment) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write pcap header: %v", err)
	}

	for _, s := range segments {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			SrcIP:    net.IP{10, 1, 1, 1},
			DstIP:    net.IP{10, 1, 2, 2},
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
		}
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(s.srcPort),
			DstPort: 8080,
			Seq:     s.seq,
			ACK:     true,
			Window:  65535,
		}
		tcp.SetNetworkLayerForChecksum(ip)

		pkt := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
		if err := gopacket.SerializeLayers(pkt, opts, eth, ip, tcp, gopacket.Payload(make([]byte, s.payload))); err != nil {
			t.Fatalf("Failed to serialize layers: %v", err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     baseTime.Add(s.at),
			CaptureLength: len(pkt.Bytes()),
			Length:        len(pkt.Bytes()),
		}
		if err := w.WritePacket(ci, pkt.Bytes()); err != nil {
			t.Fatalf("Failed to write packet: %v", err)
		}
	}
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	sender := writeCapture(t, []testSegment{
		{srcPort: 49153, seq: 1000, payload: 0, at: 0}, // pure ACK, ignored
		{srcPort: 49153, seq: 1000, payload: 1000, at: 10 * time.Millisecond},
		{srcPort: 49200, seq: 1, payload: 500, at: 15 * time.Millisecond}, // other flow
		{srcPort: 49153, seq: 2000, payload: 1000, at: 20 * time.Millisecond},
		{srcPort: 49153, seq: 3000, payload: 1000, at: 30 * time.Millisecond},
		{srcPort: 49153, seq: 2000, payload: 1000, at: 200 * time.Millisecond}, // retransmission
	})
	receiver := writeCapture(t, []testSegment{
		{srcPort: 49153, seq: 1000, payload: 1000, at: 60 * time.Millisecond},
		{srcPort: 49200, seq: 1, payload: 500, at: 65 * time.Millisecond},
		{srcPort: 49153, seq: 3000, payload: 1000, at: 80 * time.Millisecond},
		{srcPort: 49153, seq: 2000, payload: 1000, at: 250 * time.Millisecond},
	})

	obs, err := Extract(bytes.NewReader(sender), bytes.NewReader(receiver))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if obs.TxBytes != 4000 || obs.TxPackets != 4 {
		t.Errorf("Expected 4000 bytes in 4 packets sent, got %d in %d", obs.TxBytes, obs.TxPackets)
	}
	if obs.RxBytes != 3000 || obs.RxPackets != 3 {
		t.Errorf("Expected 3000 bytes in 3 packets received, got %d in %d", obs.RxBytes, obs.RxPackets)
	}
	if obs.LostPackets != 1 {
		t.Errorf("Expected 1 lost packet, got %d", obs.LostPackets)
	}
	// 50ms + 50ms + 230ms (measured from the first transmission of seq 2000)
	if obs.DelaySumSeconds != 0.33 {
		t.Errorf("Expected delay sum 0.33s, got %v", obs.DelaySumSeconds)
	}
}

func TestExtract_NoData(t *testing.T) {
	sender := writeCapture(t, []testSegment{{srcPort: 49153, seq: 1, payload: 0}})
	receiver := writeCapture(t, nil)

	_, err := Extract(bytes.NewReader(sender), bytes.NewReader(receiver))
	if !errors.Is(err, flowmon.ErrMissingFlowData) {
		t.Fatalf("Expected ErrMissingFlowData, got %v", err)
	}
}

func TestExtract_NotACapture(t *testing.T) {
	_, err := Extract(bytes.NewReader([]byte("not a pcap")), bytes.NewReader(nil))
	if err == nil {
		t.Fatal("Expected an error for invalid capture data")
	}
}

func TestSource_Observe(t *testing.T) {
	dir := t.TempDir()
	senderPath := filepath.Join(dir, "bbr-0-0.pcap")
	receiverPath := filepath.Join(dir, "bbr-1-0.pcap")
	if err := os.WriteFile(senderPath, writeCapture(t, []testSegment{{srcPort: 49153, seq: 1, payload: 1448}}), 0644); err != nil {
		t.Fatalf("Failed to write sender capture: %v", err)
	}
	if err := os.WriteFile(receiverPath, writeCapture(t, []testSegment{{srcPort: 49153, seq: 1, payload: 1448, at: time.Second}}), 0644); err != nil {
		t.Fatalf("Failed to write receiver capture: %v", err)
	}

	src, err := factory.NewSource(config.AlgorithmDef{Label: "BBR", Source: config.SourcePcap, SenderPcap: senderPath, ReceiverPcap: receiverPath})
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	obs, err := src.Observe()
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if obs.RxBytes != 1448 || obs.DelaySumSeconds != 1.0 {
		t.Errorf("Unexpected observation: %+v", obs)
	}
}
