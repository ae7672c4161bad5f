package relay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creamcroissant/relayctl/internal/initsys"
)

const defaultSettleDelay = 2 * time.Second

// ApplierOptions wires an Applier.
type ApplierOptions struct {
	// Paths are the filesystem locations the config is written to. The first
	// entry is canonical and the one validated.
	Paths []string
	// Validator checks the written file; usually a BinaryRunner.
	Validator Validator
	// InitSystem controls the relay service.
	InitSystem initsys.InitSystem
	// Service is the supervisor's name for the relay process.
	Service string
	// SettleDelay is how long to wait before polling the service state.
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Applier commits a synthesized configuration through the
// backup -> write -> validate -> {commit, rollback} -> service-sync sequence.
type Applier struct {
	paths     []string
	validator Validator
	initSys   initsys.InitSystem
	service   string
	settle    time.Duration
	logger    *slog.Logger
}

// NewApplier builds an Applier. Paths, Validator and InitSystem are required.
func NewApplier(opts ApplierOptions) (*Applier, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("applier: at least one config path is required")
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("applier: validator is required")
	}
	if opts.InitSystem == nil {
		return nil, fmt.Errorf("applier: init system is required")
	}
	if opts.Service == "" {
		opts.Service = "v2ray"
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Applier{
		paths:     opts.Paths,
		validator: opts.Validator,
		initSys:   opts.InitSystem,
		service:   opts.Service,
		settle:    opts.SettleDelay,
		logger:    opts.Logger,
	}, nil
}

// CanonicalPath returns the location the relay service reads from.
func (a *Applier) CanonicalPath() string { return a.paths[0] }

// Apply writes cfg to every configured path, validates it, and restarts the
// relay service. Validation failure rolls every path back to its pre-apply
// content and no restart happens.
func (a *Applier) Apply(ctx context.Context, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	backups, fresh := a.backupAll()

	if err := a.writeAll(data); err != nil {
		a.restore(backups, fresh)
		return err
	}

	if err := a.validator.Validate(ctx, a.CanonicalPath()); err != nil {
		a.logger.Error("config validation failed, rolling back", "error", err)
		a.restore(backups, fresh)
		return err
	}
	a.logger.Info("config validation passed", "path", a.CanonicalPath())

	return a.syncService(ctx)
}

// backupAll copies every existing config path aside. backups holds each
// path's pre-apply content; fresh marks paths that did not exist, the only
// ones rollback may remove. A path that exists but cannot be read lands in
// neither, so rollback leaves it alone.
func (a *Applier) backupAll() (backups map[string][]byte, fresh map[string]bool) {
	backups = make(map[string][]byte)
	fresh = make(map[string]bool)
	for _, path := range a.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fresh[path] = true
			} else {
				a.logger.Warn("config backup read failed", "path", path, "error", err)
			}
			continue
		}
		backups[path] = data
		if err := os.WriteFile(path+".backup", data, 0o644); err != nil {
			a.logger.Warn("config backup failed", "path", path, "error", err)
		}
	}
	return backups, fresh
}

// writeAll writes data to every configured path. The canonical path must
// succeed or the apply fails; secondary locations are best-effort for
// cross-install compatibility.
func (a *Applier) writeAll(data []byte) error {
	for i, path := range a.paths {
		err := writeConfig(path, data)
		if err == nil {
			continue
		}
		if i == 0 {
			return fmt.Errorf("write relay config %s: %w", path, err)
		}
		a.logger.Warn("write config failed", "path", path, "error", err)
	}
	return nil
}

func writeConfig(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// restore puts every backed-up path back to its pre-apply content and
// removes only paths that provably did not exist before.
func (a *Applier) restore(backups map[string][]byte, fresh map[string]bool) {
	for _, path := range a.paths {
		if prev, had := backups[path]; had {
			if err := os.WriteFile(path, prev, 0o644); err != nil {
				a.logger.Error("rollback failed", "path", path, "error", err)
			}
			continue
		}
		if fresh[path] {
			_ = os.Remove(path)
		}
	}
}

// RestoreBackups copies each path's .backup file back over the live config.
// Missing backups are skipped. Returns the number of paths restored.
func RestoreBackups(paths []string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	restored := 0
	for _, path := range paths {
		data, err := os.ReadFile(path + ".backup")
		if err != nil {
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			logger.Error("restore backup failed", "path", path, "error", err)
			continue
		}
		logger.Info("config restored from backup", "path", path)
		restored++
	}
	return restored
}

// syncService restarts the relay service and confirms it reports active
// after a short settle delay.
func (a *Applier) syncService(ctx context.Context) error {
	if err := a.initSys.Enable(ctx, a.service); err != nil {
		a.logger.Warn("service enable failed", "service", a.service, "error", err)
	}
	if err := a.initSys.Restart(ctx, a.service); err != nil {
		return &ServiceError{Service: a.service, Err: err}
	}

	timer := time.NewTimer(a.settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	running, err := a.initSys.Status(ctx, a.service)
	if err != nil {
		return &ServiceError{Service: a.service, Err: err}
	}
	if !running {
		return &ServiceError{Service: a.service}
	}
	a.logger.Info("relay service active", "service", a.service)
	return nil
}
