package command

import (
	"bytes"
	"testing"
)

func TestScooterCommandRoundTrip(t *testing.T) {
	cmd := ReadCommand(MasterToMotor, AttrMotorInfo, 0x20)
	encoded := cmd.AsBytes()

	got, err := ParseScooterCommand(encoded)
	if err != nil {
		t.Fatalf("ParseScooterCommand: %v", err)
	}

	if got.Direction != cmd.Direction || got.Op != cmd.Op || got.Attribute != cmd.Attribute {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, cmd)
	}
	if !bytes.Equal(got.Payload, cmd.Payload) {
		t.Fatalf("payload mismatch: got %x want %x", got.Payload, cmd.Payload)
	}
}

func TestWriteCommandLengthPrefix(t *testing.T) {
	cmd := WriteCommand(MasterToBattery, AttrTailLight, []byte{0x01, 0x00})
	encoded := cmd.AsBytes()
	if encoded[0] != byte(len(cmd.Payload)+2) {
		t.Fatalf("length prefix = %d, want %d", encoded[0], len(cmd.Payload)+2)
	}
}

func TestClassifyMiResponse(t *testing.T) {
	cases := []struct {
		name string
		cmd  MiCommand
	}{
		{"rdy", RcvRdy},
		{"ok", RcvOK},
		{"auth_ok", RcvAuthOK},
		{"auth_err", RcvAuthErr},
		{"login_ok", RcvLoginOK},
		{"login_err", RcvLoginErr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ClassifyMiResponse(tc.cmd.Bytes())
			if !ok {
				t.Fatalf("expected a match for %s", tc.cmd)
			}
			if got != tc.cmd {
				t.Fatalf("classified as %s, want %s", got, tc.cmd)
			}
		})
	}
}

func TestClassifyMiResponseUnknown(t *testing.T) {
	if _, ok := ClassifyMiResponse([]byte{0xff, 0xff, 0xff, 0xff}); ok {
		t.Fatal("expected no match for unknown bytes")
	}
}
