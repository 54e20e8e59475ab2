package pkg

import "strings"

// RoomCodeAlphabet leaves out characters that are easy to confuse: I, O, 0 and 1.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const DefaultRoomCodeLength = 6

func GenerateRoomCode(rnd *Random, length int) string {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}

	var code strings.Builder
	code.Grow(length)
	for range length {
		code.WriteByte(RoomCodeAlphabet[rnd.IntN(len(RoomCodeAlphabet))])
	}

	return code.String()
}
