package chain

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Address lookup table instruction indexes (bincode u32).
const (
	lutCreate uint32 = 0
	lutExtend uint32 = 2
)

// lutHeaderLen is the serialized size of the lookup-table account metadata
// preceding the packed address list.
const lutHeaderLen = 56

// DeriveLookupTable computes the PDA a lookup table created at recentSlot by
// authority will live at.
func DeriveLookupTable(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, uint8, error) {
	slotSeed := make([]byte, 8)
	binary.LittleEndian.PutUint64(slotSeed, recentSlot)
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{authority.Bytes(), slotSeed},
		AddressLookupTableProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("chain: derive lookup table: %w", err)
	}
	return addr, bump, nil
}

// CreateLookupTable builds the create instruction and returns it with the
// derived table address.
func CreateLookupTable(authority, payer solana.PublicKey, recentSlot uint64) (solana.Instruction, solana.PublicKey, error) {
	table, bump, err := DeriveLookupTable(authority, recentSlot)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	data := make([]byte, 13)
	binary.LittleEndian.PutUint32(data[0:], lutCreate)
	binary.LittleEndian.PutUint64(data[4:], recentSlot)
	data[12] = bump

	ix := solana.NewInstruction(AddressLookupTableProgramID, solana.AccountMetaSlice{
		solana.Meta(table).WRITE(),
		solana.Meta(authority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}, data)
	return ix, table, nil
}

// ExtendLookupTable builds the extend instruction appending addrs to the
// table. Order matters: v0 message compaction indexes into the table in the
// order the addresses were appended.
func ExtendLookupTable(table, authority, payer solana.PublicKey, addrs []solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 4+8+32*len(addrs))
	data = binary.LittleEndian.AppendUint32(data, lutExtend)
	data = binary.LittleEndian.AppendUint64(data, uint64(len(addrs)))
	for _, a := range addrs {
		data = append(data, a.Bytes()...)
	}

	return solana.NewInstruction(AddressLookupTableProgramID, solana.AccountMetaSlice{
		solana.Meta(table).WRITE(),
		solana.Meta(authority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}, data)
}

// FetchLookupTable reads a lookup table account and returns its packed
// address list in table order.
func FetchLookupTable(ctx context.Context, c *Client, table solana.PublicKey) (solana.PublicKeySlice, error) {
	data, owner, err := c.AccountData(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("chain: fetch lookup table %s: %w", table, err)
	}
	if !owner.Equals(AddressLookupTableProgramID) {
		return nil, fmt.Errorf("chain: account %s is not a lookup table", table)
	}
	if len(data) < lutHeaderLen || (len(data)-lutHeaderLen)%32 != 0 {
		return nil, fmt.Errorf("chain: malformed lookup table %s: %d bytes", table, len(data))
	}

	n := (len(data) - lutHeaderLen) / 32
	addrs := make(solana.PublicKeySlice, n)
	for i := 0; i < n; i++ {
		copy(addrs[i][:], data[lutHeaderLen+i*32:])
	}
	return addrs, nil
}
