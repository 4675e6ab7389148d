// Package share is the admin-share fallback: it tests for the
// servicing pending marker over SMB when the WinRM listener is
// unreachable but file sharing is not.
package share

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	smb2 "github.com/hirochachacha/go-smb2"
)

const (
	smbPort    = "445"
	adminShare = "C$"
	// markerPath is the servicing pending marker, relative to the
	// admin share root.
	markerPath = `Windows\WinSxS\pending.xml`
)

// DefaultTimeout bounds the SMB dial and session setup.
const DefaultTimeout = 30 * time.Second

// Accessor checks marker existence over a target's administrative
// share. Safe for concurrent use; each call opens its own session.
type Accessor struct {
	User     string
	Password string
	Domain   string
	Timeout  time.Duration
}

// New returns an Accessor authenticating as user/password.
func New(user, password, domain string) *Accessor {
	return &Accessor{User: user, Password: password, Domain: domain, Timeout: DefaultTimeout}
}

func (a *Accessor) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeout
}

// ServicingMarkerPresent mounts target's C$ share and stats the
// servicing marker.
func (a *Accessor) ServicingMarkerPresent(ctx context.Context, target string) (bool, error) {
	d := net.Dialer{Timeout: a.timeout()}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(target, smbPort))
	if err != nil {
		return false, fmt.Errorf("dial smb on %s: %w", target, err)
	}
	defer conn.Close()

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     a.User,
			Password: a.Password,
			Domain:   a.Domain,
		},
	}
	session, err := dialer.DialContext(ctx, conn)
	if err != nil {
		return false, fmt.Errorf("smb session on %s: %w", target, err)
	}
	defer session.Logoff()

	fs, err := session.Mount(adminShare)
	if err != nil {
		return false, fmt.Errorf("mount %s on %s: %w", adminShare, target, err)
	}
	defer fs.Umount()

	_, err = fs.Stat(markerPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s on %s: %w", markerPath, target, err)
}
