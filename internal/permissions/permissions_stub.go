//go:build !darwin

package permissions

// CheckMicrophone always reports access on platforms without a permission model.
func CheckMicrophone() Status {
	return Authorized
}

// RequestMicrophone is a no-op on non-macOS platforms.
func RequestMicrophone() {}
