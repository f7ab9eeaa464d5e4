//go:build tools

package tools

// gomobile bind needs golang.org/x/mobile in go.mod:
//
//	gomobile bind -target=android ./mobile
import (
	_ "golang.org/x/mobile/bind"
)
