package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/audit"
)

// execute runs the root command with args and restores every flag of the
// subcommand afterwards, since cobra keeps flag state between runs.
func execute(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { resetFlags(sub) })

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, versionCmd, "version")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "cerebro", info["name"])
	assert.Equal(t, Version, info["version"])
}

func TestInitPolicyRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "policy.yaml")

	out, err := execute(t, initPolicyCmd, "init-policy", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "escalation:")

	_, err = execute(t, initPolicyCmd, "init-policy", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, initPolicyCmd, "init-policy", "--output", path, "--force")
	require.NoError(t, err)
}

func decodeDecision(t *testing.T, out string) api.DecideResponse {
	t.Helper()
	var resp api.DecideResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestDecideRoleBlocked(t *testing.T) {
	out, err := execute(t, decideCmd, "decide", "--intent", "wallet_transfer", "--role", "vale")
	require.NoError(t, err)

	resp := decodeDecision(t, out)
	assert.True(t, resp.Outcome.Blocked)
	assert.NotEmpty(t, resp.DecisionID)
	assert.True(t, strings.HasPrefix(resp.PolicyHash, "sha256:"))
}

func TestDecideUnknownRoleFailsClosed(t *testing.T) {
	out, err := execute(t, decideCmd, "decide", "--intent", "navigate.home", "--role", "jefe")
	require.NoError(t, err)

	resp := decodeDecision(t, out)
	assert.True(t, resp.Outcome.Blocked)
	assert.Contains(t, resp.Outcome.Message, "No pudimos procesar")
}

func TestDecideYellowZoneNeedsConfirmation(t *testing.T) {
	out, err := execute(t, decideCmd, "decide",
		"--intent", "navigate.wallet", "--source", "chip", "--role", "cliente",
		"--lat", "-25.2958", "--lng", "-57.6283")
	require.NoError(t, err)

	resp := decodeDecision(t, out)
	require.True(t, resp.Outcome.RequiresValidation)
	require.NotNil(t, resp.Outcome.RequiredLevel)
	assert.EqualValues(t, 1, *resp.Outcome.RequiredLevel)
}

func TestDecideFreshVerificationAllows(t *testing.T) {
	out, err := execute(t, decideCmd, "decide",
		"--intent", "navigate.wallet", "--source", "chip", "--role", "cliente",
		"--lat", "-25.2958", "--lng", "-57.6283",
		"--verified-level", "1", "--verified-ago", "30s")
	require.NoError(t, err)

	resp := decodeDecision(t, out)
	assert.True(t, resp.Outcome.Allowed)
	assert.Equal(t, "yellow", string(resp.Outcome.Severity))
}

func TestDecideRejectsHalfPoint(t *testing.T) {
	_, err := execute(t, decideCmd, "decide", "--intent", "navigate.home", "--role", "cliente", "--lat", "-25.3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat and --lng")
}

func TestDecideRejectsBadLevel(t *testing.T) {
	_, err := execute(t, decideCmd, "decide", "--intent", "navigate.home", "--role", "cliente", "--verified-level", "7")
	require.Error(t, err)
}

func TestCheckShippedScenarios(t *testing.T) {
	out, err := execute(t, checkCmd, "check", "--scenario", "../../scenarios/*.yaml")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "FAIL")
}

func TestCheckReportsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	content := `name: wrong
cases:
  - intent: {intent_id: wallet_transfer}
    context: {role: vale}
    expect: allowed
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := execute(t, checkCmd, "check", "--scenario", path)
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "FAIL")
}

func TestCheckNoMatches(t *testing.T) {
	_, err := execute(t, checkCmd, "check", "--scenario", filepath.Join(t.TempDir(), "*.yaml"))
	require.Error(t, err)
}

func writeAuditLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := audit.Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(audit.Entry{DecisionID: "d1", UserID: "u1", Intent: "wallet_transfer", Kind: "blocked"}))
	require.NoError(t, l.Record(audit.Entry{DecisionID: "d2", UserID: "u2", Intent: "navigate.home", Kind: "allowed"}))
	require.NoError(t, l.Close())
	return path
}

func TestAuditVerify(t *testing.T) {
	path := writeAuditLog(t)

	out, err := execute(t, auditVerifyCmd, "audit", "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 2 entries verified")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"u1"`, `"u9"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	_, err = execute(t, auditVerifyCmd, "audit", "verify", path)
	assert.ErrorIs(t, err, errChainBroken)
}

func TestAuditReplayFilters(t *testing.T) {
	path := writeAuditLog(t)

	out, err := execute(t, auditReplayCmd, "audit", "replay", path, "--user", "u1", "--format", "json")
	require.NoError(t, err)

	var result audit.ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "d1", result.Entries[0].DecisionID)
}

func TestAuditReplayRejectsInvertedRange(t *testing.T) {
	path := writeAuditLog(t)
	_, err := execute(t, auditReplayCmd, "audit", "replay", path, "--from", "1h", "--to", "2h")
	require.Error(t, err)
}

func TestAuditTail(t *testing.T) {
	path := writeAuditLog(t)

	out, err := execute(t, auditTailCmd, "audit", "tail", path, "-n", "1", "-f", "json")
	require.NoError(t, err)

	var result audit.ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "d2", result.Entries[0].DecisionID)
}

func TestZoneTerritory(t *testing.T) {
	out, err := execute(t, zoneCmd, "zone", "--territory", "chacarita")
	require.NoError(t, err)

	var resp api.ZoneResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "red", string(resp.State))
	assert.True(t, resp.Covered)
}

func TestZoneList(t *testing.T) {
	out, err := execute(t, zoneCmd, "zone", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "villa_morra")
	assert.Contains(t, out, "(uncovered)")
}

func TestZoneMalformedPoint(t *testing.T) {
	_, err := execute(t, zoneCmd, "zone", "--lat", "95", "--lng", "0")
	require.Error(t, err)
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.yaml")
	newPath := filepath.Join(dir, "new.yaml")
	require.NoError(t, os.WriteFile(oldPath, []byte("escalation:\n  high_threshold: 1000000\n"), 0644))
	require.NoError(t, os.WriteFile(newPath, []byte("escalation:\n  high_threshold: 500000\n"), 0644))

	out, err := execute(t, diffCmd, "diff", oldPath, newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "high_threshold:")
	assert.Contains(t, out, "(stricter)")
}

func TestSimulateCommand(t *testing.T) {
	policyPath := filepath.Join(t.TempDir(), "candidate.yaml")
	require.NoError(t, os.WriteFile(policyPath, []byte("zones:\n  overrides:\n    mercado4: green\n"), 0644))

	out, err := execute(t, simulateCmd, "simulate", "--scenario", "../../scenarios/fail-closed.yaml", "--policy", policyPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CHANGED")
	assert.Contains(t, out, "1 looser")
}

func TestInitSystemdStdout(t *testing.T) {
	out, err := execute(t, initSystemdCmd, "init-systemd", "--user", "svc", "--rate-limit", "60")
	require.NoError(t, err)
	assert.Contains(t, out, "User=svc")
	assert.Contains(t, out, "--rate-limit 60")
}

func TestInitSystemdWriteAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cerebro.service")

	out, err := execute(t, initSystemdCmd, "init-systemd", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, path+".sha256")

	out, err = execute(t, initSystemdCmd, "init-systemd", "--output", path, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("User=root\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = execute(t, initSystemdCmd, "init-systemd", "--output", path, "--verify")
	assert.ErrorIs(t, err, errUnitModified)

	_, err = execute(t, initSystemdCmd, "init-systemd", "--output", path)
	assert.ErrorContains(t, err, "already exists")
}
