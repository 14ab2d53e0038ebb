// Package pcaptrace derives a flow observation from a pair of packet captures
// taken at the sending and the receiving host of a simulated TCP flow.
package pcaptrace

import (
	"TCPSpectra/internal/flowmon"
	"TCPSpectra/internal/model"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// flowKey identifies one direction of a TCP connection.
type flowKey struct {
	network   gopacket.Flow
	transport gopacket.Flow
}

// segment is a TCP data segment read from a capture.
type segment struct {
	key       flowKey
	seq       uint32
	payload   int
	timestamp time.Time
}

// Extract builds the observation of the first data-carrying TCP flow in the
// sender capture. Segments of any other flow are ignored in both captures.
//
// Delay is accumulated per received segment as the time since the first
// transmission of the same sequence number; segments without a matching
// transmission add no delay.
func Extract(sender, receiver io.Reader) (model.FlowObservation, error) {
	sent, err := readSegments(sender)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("failed to read sender capture: %w", err)
	}
	if len(sent) == 0 {
		return model.FlowObservation{}, flowmon.ErrMissingFlowData
	}
	key := sent[0].key

	var obs model.FlowObservation
	firstTx := make(map[uint32]time.Time)
	for _, s := range sent {
		if s.key != key {
			continue
		}
		obs.TxBytes += uint64(s.payload)
		obs.TxPackets++
		if _, seen := firstTx[s.seq]; !seen {
			firstTx[s.seq] = s.timestamp
		}
	}

	received, err := readSegments(receiver)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("failed to read receiver capture: %w", err)
	}
	var delaySum time.Duration
	for _, s := range received {
		if s.key != key {
			continue
		}
		obs.RxBytes += uint64(s.payload)
		obs.RxPackets++
		if sentAt, ok := firstTx[s.seq]; ok {
			if d := s.timestamp.Sub(sentAt); d > 0 {
				delaySum += d
			}
		}
	}

	if obs.TxPackets > obs.RxPackets {
		obs.LostPackets = obs.TxPackets - obs.RxPackets
	}
	obs.DelaySumSeconds = float64(delaySum.Nanoseconds()) / 1e9
	return obs, nil
}

// ExtractFiles opens both captures from disk and calls Extract.
func ExtractFiles(senderPath, receiverPath string) (model.FlowObservation, error) {
	sender, err := os.Open(senderPath)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("failed to open pcap file '%s': %w", senderPath, err)
	}
	defer sender.Close()

	receiver, err := os.Open(receiverPath)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("failed to open pcap file '%s': %w", receiverPath, err)
	}
	defer receiver.Close()

	obs, err := Extract(sender, receiver)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("%s -> %s: %w", senderPath, receiverPath, err)
	}
	return obs, nil
}

// readSegments returns the TCP segments with payload in capture order.
func readSegments(r io.Reader) ([]segment, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	linkType := reader.LinkType()

	var segments []segment
	for {
		data, ci, err := reader.ReadPacketData()
		if err == io.EOF {
			return segments, nil
		}
		if err != nil {
			return nil, err
		}

		packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		netLayer := packet.NetworkLayer()
		tcpLayer, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		if netLayer == nil || !ok || len(tcpLayer.Payload) == 0 {
			continue
		}
		segments = append(segments, segment{
			key:       flowKey{network: netLayer.NetworkFlow(), transport: tcpLayer.TransportFlow()},
			seq:       tcpLayer.Seq,
			payload:   len(tcpLayer.Payload),
			timestamp: ci.Timestamp,
		})
	}
}
