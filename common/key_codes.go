package common

// Key is a platform independent key code delivered with engine key events.
// Values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32
	KeyC     Key = 67
	KeyP     Key = 80
	KeyR     Key = 82
	KeyEsc   Key = 256
	KeyEnter Key = 257
)
