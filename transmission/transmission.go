// Package transmission implements the framed wire format a zone is
// shipped as, grounded on spec.md §4.11 and
// original_source/zonys-core/src/{transmission.rs,zone/transmission.rs}.
// A transmission is: a magic number, three length-prefixed records
// (the zone's Unit, a TypeHeader, a VolumeHeader), followed immediately
// by an unframed raw volume stream (dataset-send bytes or a tar
// stream). The original encodes each record with the `postcard` crate;
// this port uses the standard library's encoding/gob for the two small
// fixed-shape headers (the same encoding minimega's own meshage package
// uses for its node-to-node wire messages — no pack dependency offers a
// lighter binary codec without either protobuf schema generation, which
// nothing in this module runs, or the interface{}-registration
// ceremony of a msgpack library no pack repo actually imports directly)
// and the Unit's own YAML encoding for the configuration record, mirroring
// the original's ZoneTransmissionVersion1Header.configuration field,
// which carries the Unit as an opaque serialized byte blob rather than a
// typed field of the envelope itself.
package transmission

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"zonys/config"
)

// MagicNumber opens every transmission.
const MagicNumber uint64 = 0xFFF8E9750A50AD48

// HeaderVersion is the only TypeHeader/VolumeHeader version this port
// writes or accepts.
const HeaderVersion = 1

// ZoneType names the kind of zone a transmission carries.
type ZoneType string

const (
	ZoneJail   ZoneType = "jail"
	ZoneChroot ZoneType = "chroot"
)

// VolumeType names the root filesystem backend a transmission's volume
// stream is encoded in.
type VolumeType string

const (
	VolumeZfs       VolumeType = "zfs"
	VolumeDirectory VolumeType = "directory"
)

// TypeHeader identifies the zone kind being transmitted.
type TypeHeader struct {
	Version int
	Type    ZoneType
}

// VolumeHeader identifies the volume backend the trailing raw stream is
// encoded in.
type VolumeHeader struct {
	Version int
	Type    VolumeType
}

// supportedZoneTypes/supportedVolumeTypes gate what this port accepts
// on receive: only the jail zone type and the zfs/directory volume
// backends are implemented (§4.2/§4.8), even though the wire format
// reserves room for more.
var supportedZoneTypes = map[ZoneType]bool{ZoneJail: true}

var supportedVolumeTypes = map[VolumeType]bool{VolumeZfs: true, VolumeDirectory: true}

func writeFramed(w io.Writer, payload []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint64(len(payload))); err != nil {
		return err
	}

	_, err := w.Write(payload)

	return err
}

func readFramed(r io.Reader) ([]byte, error) {
	var length uint64
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Send writes one complete transmission: magic, the Unit record, the
// TypeHeader record, the VolumeHeader record, then copies volumeStream
// verbatim as the trailing unframed raw stream.
func Send(w io.Writer, unit *config.Unit, zoneType ZoneType, volumeType VolumeType, volumeStream io.Reader) error {
	if err := binary.Write(w, binary.BigEndian, MagicNumber); err != nil {
		return err
	}

	unitBytes, err := yaml.Marshal(unit)
	if err != nil {
		return err
	}

	if err := writeFramed(w, unitBytes); err != nil {
		return err
	}

	typeBytes, err := encodeGob(TypeHeader{Version: HeaderVersion, Type: zoneType})
	if err != nil {
		return err
	}

	if err := writeFramed(w, typeBytes); err != nil {
		return err
	}

	volumeHeaderBytes, err := encodeGob(VolumeHeader{Version: HeaderVersion, Type: volumeType})
	if err != nil {
		return err
	}

	if err := writeFramed(w, volumeHeaderBytes); err != nil {
		return err
	}

	_, err = io.Copy(w, volumeStream)

	return err
}

// Envelope is everything Receive reads ahead of the raw volume stream.
type Envelope struct {
	Unit         *config.Unit
	TypeHeader   TypeHeader
	VolumeHeader VolumeHeader
}

// Receive reads one transmission's magic number and its three records,
// validating that the host supports the zone and volume types named.
// The remaining unread bytes of r are the raw volume stream; the caller
// hands r to the appropriate volume receiver after Receive returns.
func Receive(r io.Reader) (*Envelope, error) {
	var magic uint64

	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEmptyInput
		}

		return nil, err
	}

	if magic != MagicNumber {
		return nil, ErrMissingMagicNumber
	}

	unitBytes, err := readFramed(r)
	if err != nil {
		return nil, err
	}

	var unit config.Unit
	if err := yaml.Unmarshal(unitBytes, &unit); err != nil {
		return nil, err
	}

	typeBytes, err := readFramed(r)
	if err != nil {
		return nil, err
	}

	var typeHeader TypeHeader
	if err := decodeGob(typeBytes, &typeHeader); err != nil {
		return nil, err
	}

	if typeHeader.Version != HeaderVersion || !supportedZoneTypes[typeHeader.Type] {
		return nil, ErrUnsupportedTransmissionType
	}

	volumeHeaderBytes, err := readFramed(r)
	if err != nil {
		return nil, err
	}

	var volumeHeader VolumeHeader
	if err := decodeGob(volumeHeaderBytes, &volumeHeader); err != nil {
		return nil, err
	}

	if volumeHeader.Version != HeaderVersion || !supportedVolumeTypes[volumeHeader.Type] {
		return nil, ErrUnsupportedTransmissionType
	}

	return &Envelope{Unit: &unit, TypeHeader: typeHeader, VolumeHeader: volumeHeader}, nil
}
