package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestAlreadyLocked(t *testing.T) {
	msg := "session /tmp/s1 is in use"

	err := AlreadyLocked(msg)

	if !IsAlreadyLocked(err) {
		t.Errorf("expected AlreadyLockedError, got: %T", err)
	}

	a, _ := AsAlreadyLocked(err)

	if a.Error() != msg {
		t.Errorf("expected %s, got: %s", msg, a.Error())
	}
}

func TestAlreadyLockedItem(t *testing.T) {
	err := AlreadyLocked("resource ${%s} is in use", "/tmp/s1")

	if !IsAlreadyLocked(err) {
		t.Errorf("expected AlreadyLockedError, got: %T", err)
	}

	a, _ := AsAlreadyLocked(err)

	msg := fmt.Sprintf("resource %s is in use", "/tmp/s1")

	if a.Error() != msg {
		t.Errorf("expected %s, got: %s", msg, a.Error())
	}

	if v, ok := a.Item.(string); !ok || v != "/tmp/s1" {
		t.Errorf("expected item /tmp/s1, got: %v", a.Item)
	}
}

func TestAlreadyLockedHolder(t *testing.T) {
	err := AlreadyLocked("resource ${%s} is in use", "/tmp/s1").SetHolder("4321:aaaa")

	a, ok := AsAlreadyLocked(err)
	if !ok {
		t.Fatalf("expected AlreadyLockedError, got: %v", err)
	}

	details := a.ErrorDetails()
	if details == a.Error() {
		t.Errorf("expected holder in details, got: %s", details)
	}
}

func TestLockLost(t *testing.T) {
	err := LockLost("lock on ${%s} was reclaimed", "/tmp/s1")

	if !IsLockLost(err) {
		t.Errorf("expected LockLostError, got: %T", err)
	}

	if IsAlreadyLocked(err) {
		t.Error("LockLostError should not match AlreadyLockedError")
	}

	l, ok := AsLockLost(err)
	if !ok {
		t.Fatalf("expected LockLostError, got: %v", err)
	}

	if v, ok := l.Item.(string); !ok || v != "/tmp/s1" {
		t.Errorf("expected item /tmp/s1, got: %v", l.Item)
	}
}

func TestIO(t *testing.T) {
	cause := fs.ErrPermission
	err := IO(cause, "open sentinel file")

	if !IsIO(err) {
		t.Errorf("expected IOError, got: %T", err)
	}

	// the causal error must remain matchable through the wrapper
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("expected wrapped fs.ErrPermission, got: %v", err)
	}

	i, _ := AsIO(err)
	if i.Err != cause {
		t.Errorf("expected cause %v, got: %v", cause, i.Err)
	}
}

func TestConfiguration(t *testing.T) {
	err := Configuration("invalid lock configuration")
	err.AddError(New("refresh rate must be less than timeout"))
	err.Check(false, New("unknown lock type"))

	if !IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got: %T", err)
	}

	if len(err.Errors) != 2 {
		t.Errorf("expected 2 violations, got: %d", len(err.Errors))
	}

	details := Details(err).Error()
	if details == err.Error() {
		t.Errorf("expected aggregated details, got: %s", details)
	}
}

func TestConfigurationAsError(t *testing.T) {
	err := Configuration("")
	if err.AsError() != nil {
		t.Errorf("expected nil for empty configuration error, got: %v", err.AsError())
	}

	err.AddError(New("timeout must be positive"))
	if err.AsError() == nil {
		t.Error("expected non-nil once a violation is recorded")
	}
}
