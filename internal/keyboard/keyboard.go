// package keyboard captures single keystrokes while a monitor loop is
// drawing its interface.
package keyboard

import (
	"os"

	"golang.org/x/term"
)

// Keys the monitor loops react to.
const (
	KeySell      byte = ' '
	KeyBuy       byte = 'b'
	KeyQuit      byte = 'q'
	KeyQuitUpper byte = 'Q'
	KeyInterrupt byte = 0x03 // ctrl-c arrives as a byte in raw mode
)

// Listen switches stdin to raw mode and streams keystrokes one byte at
// a time. The returned restore function must run before the process
// exits or the terminal stays raw.
func Listen() (<-chan byte, func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, err
	}

	keys := make(chan byte, 8)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n == 0 {
				continue
			}
			select {
			case keys <- buf[0]:
			default:
				// Drop keystrokes rather than block the reader.
			}
		}
	}()

	restore := func() { _ = term.Restore(fd, oldState) }
	return keys, restore, nil
}

// ReadHidden reads a line from stdin without echoing it, used for the
// buy-amount prompt.
func ReadHidden() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsQuit reports whether a keystroke should terminate the bot.
func IsQuit(k byte) bool {
	return k == KeyQuit || k == KeyQuitUpper || k == KeyInterrupt
}
