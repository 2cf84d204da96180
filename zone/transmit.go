package zone

import (
	"fmt"
	"io"

	"zonys/config"
	"zonys/identity"
	"zonys/lock"
	"zonys/transmission"
	"zonys/volume"
)

// Send writes z as a complete transmission to w: magic, Unit,
// TypeHeader, VolumeHeader, then the volume's raw stream. Fails with
// ErrIsRunning if z still has a jail handle.
func Send(z *Zone, w io.Writer) error {
	return lock.Hold(z.Identity, func() error {
		return runSend(z, w)
	})
}

func runSend(z *Zone, w io.Writer) error {
	if z.Running() {
		return ErrIsRunning
	}

	reader := config.NewReader(z.Unit)

	vol, err := volume.New(reader.VolumeKind(), z.Identity)
	if err != nil {
		return fmt.Errorf("selecting volume backend: %w", err)
	}

	var volumeType transmission.VolumeType

	switch vol.Kind() {
	case config.VolumeZfs:
		volumeType = transmission.VolumeZfs
	case config.VolumeDirectory:
		volumeType = transmission.VolumeDirectory
	default:
		return fmt.Errorf("%w: %q", transmission.ErrUnsupportedTransmissionType, vol.Kind())
	}

	pr, pw := io.Pipe()

	sendErr := make(chan error, 1)

	go func() {
		sendErr <- vol.Send(pw)
		pw.Close()
	}()

	if err := transmission.Send(w, z.Unit, transmission.ZoneJail, volumeType, pr); err != nil {
		return fmt.Errorf("writing transmission: %w", err)
	}

	if err := <-sendErr; err != nil {
		return fmt.Errorf("streaming volume: %w", err)
	}

	return nil
}

// Receive reads one complete transmission from r, materializing a new
// zone under base with a freshly generated identity: the sent Unit is
// written verbatim to "<uuid>.yaml" and the trailing raw stream is
// handed to the volume backend the wire format named.
func Receive(base identity.Base, r io.Reader) (identity.Identity, error) {
	id, err := identity.Generate(base)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("generating zone identity: %w", err)
	}

	holdErr := lock.Hold(id, func() error {
		return runReceive(id, r)
	})
	if holdErr != nil {
		cleanup(id)
		return identity.Identity{}, holdErr
	}

	return id, nil
}

func runReceive(id identity.Identity, r io.Reader) error {
	envelope, err := transmission.Receive(r)
	if err != nil {
		return err
	}

	if err := writeUnit(id.ToConfigPath(), envelope.Unit); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}

	var volumeKind config.VolumeKind

	switch envelope.VolumeHeader.Type {
	case transmission.VolumeZfs:
		volumeKind = config.VolumeZfs
	case transmission.VolumeDirectory:
		volumeKind = config.VolumeDirectory
	default:
		return transmission.ErrUnsupportedTransmissionType
	}

	if _, err := volume.Receive(volumeKind, id, r); err != nil {
		return fmt.Errorf("receiving volume: %w", err)
	}

	return nil
}
