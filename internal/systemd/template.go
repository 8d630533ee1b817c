// Package systemd renders a hardened unit file for running cerebro serve.
package systemd

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Options are the knobs exposed in the generated unit.
type Options struct {
	Binary            string
	User              string
	PolicyPath        string
	AuditLog          string
	VerificationStore string
	GRPCPort          int
	HTTPAddr          string
	RateLimit         int
}

// DefaultOptions returns the layout used by the packaged install.
func DefaultOptions() Options {
	return Options{
		Binary:            "/usr/local/bin/cerebro",
		User:              "cerebro",
		PolicyPath:        "/etc/cerebro/policy.yaml",
		AuditLog:          "/var/lib/cerebro/audit.jsonl",
		VerificationStore: "sqlite:/var/lib/cerebro/verification.db",
		GRPCPort:          50051,
		HTTPAddr:          ":8080",
	}
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Cerebro decision server
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User={{.User}}
Group={{.User}}
ExecStart={{.Binary}} serve --policy {{.PolicyPath}} --audit-log {{.AuditLog}} --verification-store {{.VerificationStore}} --grpc-port {{.GRPCPort}} --http-addr {{.HTTPAddr}}{{if gt .RateLimit 0}} --rate-limit {{.RateLimit}}{{end}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=2
StateDirectory=cerebro
ConfigurationDirectory=cerebro
ReadWritePaths=/var/lib/cerebro

NoNewPrivileges=true
PrivateTmp=true
PrivateDevices=true
ProtectSystem=strict
ProtectHome=true
ProtectKernelTunables=true
ProtectKernelModules=true
ProtectControlGroups=true
RestrictNamespaces=true
RestrictSUIDSGID=true
LockPersonality=true
MemoryDenyWriteExecute=true
CapabilityBoundingSet=
SystemCallArchitectures=native

MemoryMax=512M
TasksMax=256

[Install]
WantedBy=multi-user.target
`))

// Render returns the unit file text for opts.
func Render(opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, opts); err != nil {
		return "", fmt.Errorf("render unit: %w", err)
	}
	return buf.String(), nil
}

func (o Options) validate() error {
	fields := map[string]string{
		"binary":             o.Binary,
		"user":               o.User,
		"policy path":        o.PolicyPath,
		"audit log":          o.AuditLog,
		"verification store": o.VerificationStore,
	}
	for name, v := range fields {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
		if strings.ContainsAny(v, " \t\n") {
			return fmt.Errorf("%s %q must not contain whitespace", name, v)
		}
	}
	if o.GRPCPort <= 0 || o.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", o.GRPCPort)
	}
	if strings.ContainsAny(o.HTTPAddr, " \t\n") {
		return fmt.Errorf("http addr %q must not contain whitespace", o.HTTPAddr)
	}
	if o.RateLimit < 0 {
		return fmt.Errorf("negative rate limit %d", o.RateLimit)
	}
	return nil
}

// Hash returns the hex sha256 of a unit file's contents.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// CheckIntegrity compares the unit at unitPath against the install-time hash
// stored at hashPath. Returns a warning, or "" if the unit is unchanged or
// there is nothing to compare.
func CheckIntegrity(unitPath, hashPath string) string {
	stored, err := os.ReadFile(hashPath)
	if err != nil {
		return ""
	}
	expected := strings.TrimSpace(string(stored))
	if len(expected) != 64 {
		return ""
	}

	data, err := os.ReadFile(unitPath)
	if err != nil {
		return fmt.Sprintf("cannot read unit file %s: %v", unitPath, err)
	}
	actual := Hash(data)
	if actual == expected {
		return ""
	}
	return fmt.Sprintf("systemd unit file %s has been modified since installation (expected %s, got %s)",
		unitPath, expected[:16], actual[:16])
}
