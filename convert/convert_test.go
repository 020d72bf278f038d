package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEVMToMoveZeroExtends(t *testing.T) {
	got, err := EVMToMove("0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A")
	require.NoError(t, err)
	require.Len(t, got, 2+64)
	require.Equal(t, "0x0000000000000000000000002ba64efb7a4ec8983e22a49c81fa216ac33f383a", got)
}

func TestEVMToMoveRejectsBadLengths(t *testing.T) {
	for _, in := range []string{
		"",
		"0x",
		"0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f38",     // 19 bytes
		"0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A00", // 21 bytes
		"0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f38zz",   // not hex
	} {
		_, err := EVMToMove(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestMoveToEVMRoundTrip(t *testing.T) {
	evm := "0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A"
	move, err := EVMToMove(evm)
	require.NoError(t, err)

	back, err := MoveToEVM(move)
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(evm), strings.ToLower(back))
}

func TestMoveToEVMRejectsNativeAccounts(t *testing.T) {
	// top bytes not zero: a genuine Move account, no EVM form
	_, err := MoveToEVM("0xaa00000000000000000000002ba64efb7a4ec8983e22a49c81fa216ac33f383a")
	require.Error(t, err)

	_, err = MoveToEVM("0x1234")
	require.Error(t, err)
}

func TestValidMoveAddress(t *testing.T) {
	require.True(t, ValidMoveAddress("0x0000000000000000000000002ba64efb7a4ec8983e22a49c81fa216ac33f383a"))
	require.False(t, ValidMoveAddress("0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A"))
	require.False(t, ValidMoveAddress("not-an-address"))
}
