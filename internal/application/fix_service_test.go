package application_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/backup"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/workspace"
	"github.com/vulnfix/vulnfix/internal/application"
	"github.com/vulnfix/vulnfix/internal/domain"
)

const fixtureDir = "../../testdata/workspaces/single-pom"

const (
	springFrom = "org.springframework:spring-core@5.0.5.RELEASE"
	springTo   = "org.springframework:spring-core@5.0.6.RELEASE"
)

func fixture(t *testing.T, app, file string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, app, file))
	require.NoError(t, err)
	return string(data)
}

// memWorkspace returns an in-memory workspace holding the fixture's pom.xml.
func memWorkspace(t *testing.T, app string) *workspace.FS {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "pom.xml", []byte(fixture(t, app, "pom.xml")), 0644))
	return workspace.New(fs)
}

func mavenEntity(ws domain.Workspace, upgrades map[string]domain.UpgradeInstruction) domain.EntityToFix {
	return domain.EntityToFix{
		ScanResult: domain.ScanResult{Identity: domain.Identity{Type: "maven", TargetFile: "pom.xml"}},
		TestResult: domain.TestResult{Remediation: &domain.Remediation{Upgrade: upgrades}},
		Workspace:  ws,
	}
}

func springUpgrade() map[string]domain.UpgradeInstruction {
	return map[string]domain.UpgradeInstruction{
		springFrom: {UpgradeTo: springTo, Vulns: []string{"SNYK-JAVA-ORGSPRINGFRAMEWORK-31651"}},
	}
}

func newService(cfg domain.ProjectConfig, backups domain.BackupStore) *application.FixService {
	return application.NewFixService("", cfg, backups, nil, logr.Discard())
}

// recordingWorkspace wraps a workspace and counts writes.
type recordingWorkspace struct {
	domain.Workspace
	writes  int
	readErr error
}

func (r *recordingWorkspace) ReadFile(path string) (string, error) {
	if r.readErr != nil {
		return "", r.readErr
	}
	return r.Workspace.ReadFile(path)
}

func (r *recordingWorkspace) WriteFile(path, content string) error {
	r.writes++
	return r.Workspace.WriteFile(path, content)
}

func TestFix_UpgradesEachProvenance(t *testing.T) {
	apps := []string{
		"simple-app",
		"app-with-properties",
		"app-with-dependency-management",
		"app-with-properties-and-dependency-management",
		"app-with-parent-version",
	}
	for _, app := range apps {
		t.Run(app, func(t *testing.T) {
			ws := memWorkspace(t, app)
			report := newService(domain.DefaultConfig(), nil).Fix(
				[]domain.EntityToFix{mavenEntity(ws, springUpgrade())}, domain.FixOptions{})

			res := report.Results["maven"]
			require.NotNil(t, res)
			require.Len(t, res.Succeeded, 1)
			changes := res.Succeeded[0].Changes
			require.Len(t, changes, 1)
			assert.True(t, changes[0].Success)
			assert.Equal(t, "Upgraded org.springframework:spring-core from 5.0.5.RELEASE to 5.0.6.RELEASE", changes[0].UserMessage)
			assert.Equal(t, []string{"SNYK-JAVA-ORGSPRINGFRAMEWORK-31651"}, changes[0].IssueIDs)
			assert.Equal(t, springFrom, changes[0].From)
			assert.Equal(t, springTo, changes[0].To)

			got, err := ws.ReadFile("pom.xml")
			require.NoError(t, err)
			assert.Equal(t, fixture(t, app, "expected-pom.xml"), got)
		})
	}
}

func TestFix_MultipleUpgradesWrittenOnce(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "multiple-upgrades")}
	upgrades := springUpgrade()
	upgrades["com.fasterxml.jackson.core:jackson-databind@2.9.8"] = domain.UpgradeInstruction{
		UpgradeTo: "com.fasterxml.jackson.core:jackson-databind@2.9.10.7",
		Vulns:     []string{"SNYK-JAVA-COMFASTERXMLJACKSONCORE-1048302"},
	}

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(rec, upgrades)}, domain.FixOptions{})

	changes := report.Results["maven"].Succeeded[0].Changes
	require.Len(t, changes, 2)
	assert.Equal(t, "com.fasterxml.jackson.core:jackson-databind@2.9.8", changes[0].From)
	assert.Equal(t, "PropertyReference", changes[0].Provenance)
	assert.Equal(t, springFrom, changes[1].From)
	assert.Equal(t, "InlineOnDependency", changes[1].Provenance)

	assert.Equal(t, 1, rec.writes)
	got, err := rec.ReadFile("pom.xml")
	require.NoError(t, err)
	assert.Equal(t, fixture(t, "multiple-upgrades", "expected-pom.xml"), got)
}

func TestFix_DependencyNotFound(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "simple-app")}
	upgrades := map[string]domain.UpgradeInstruction{
		"junit:junit@4.12": {UpgradeTo: "junit:junit@4.13.1", Vulns: []string{"SNYK-JAVA-JUNIT-1017047"}},
	}

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(rec, upgrades)}, domain.FixOptions{})

	res := report.Results["maven"]
	require.Len(t, res.Succeeded, 1, "a project with failed upgrades still succeeds")
	change := res.Succeeded[0].Changes[0]
	assert.False(t, change.Success)
	assert.Equal(t, "Failed to upgrade junit:junit from 4.12 to 4.13.1", change.UserMessage)
	assert.Equal(t, "Could not find dependency junit:junit@4.12", change.Reason)
	assert.Equal(t, domain.DefaultTip, change.Tip)
	assert.Equal(t, []string{"SNYK-JAVA-JUNIT-1017047"}, change.IssueIDs)
	assert.Zero(t, rec.writes)
}

func TestFix_PartialSuccess(t *testing.T) {
	ws := memWorkspace(t, "simple-app")
	upgrades := springUpgrade()
	upgrades["junit:junit@4.12"] = domain.UpgradeInstruction{UpgradeTo: "junit:junit@4.13.1"}

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(ws, upgrades)}, domain.FixOptions{})

	changes := report.Results["maven"].Succeeded[0].Changes
	require.Len(t, changes, 2)
	assert.False(t, changes[0].Success, "junit sorts first and is missing")
	assert.True(t, changes[1].Success)

	applied, failed := report.ChangeCounts()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, failed)

	got, err := ws.ReadFile("pom.xml")
	require.NoError(t, err)
	assert.Equal(t, fixture(t, "simple-app", "expected-pom.xml"), got)
}

func TestFix_DryRunDoesNotWrite(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "simple-app")}
	fs := memfs.New()

	report := newService(domain.DefaultConfig(), backup.New(fs)).Fix(
		[]domain.EntityToFix{mavenEntity(rec, springUpgrade())}, domain.FixOptions{DryRun: true})

	assert.True(t, report.DryRun)
	assert.True(t, report.Results["maven"].Succeeded[0].Changes[0].Success)
	assert.Zero(t, rec.writes)
	_, ok, err := backup.New(fs).Load("pom.xml")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFix_SavesBackupBeforeWriting(t *testing.T) {
	ws := memWorkspace(t, "simple-app")
	store := backup.New(ws.Filesystem())

	newService(domain.DefaultConfig(), store).Fix(
		[]domain.EntityToFix{mavenEntity(ws, springUpgrade())}, domain.FixOptions{})

	saved, ok, err := store.Load("pom.xml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixture(t, "simple-app", "pom.xml"), saved)
}

func TestFix_BackupDisabled(t *testing.T) {
	ws := memWorkspace(t, "simple-app")
	store := backup.New(ws.Filesystem())
	off := false

	newService(domain.ProjectConfig{Backup: &off}, store).Fix(
		[]domain.EntityToFix{mavenEntity(ws, springUpgrade())}, domain.FixOptions{})

	_, ok, err := store.Load("pom.xml")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFix_ExcludedPackage(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "simple-app")}
	cfg := domain.ProjectConfig{
		Tip:             "Ask the platform team",
		ExcludePackages: []string{"org.springframework:spring-core"},
	}

	report := newService(cfg, nil).Fix(
		[]domain.EntityToFix{mavenEntity(rec, springUpgrade())}, domain.FixOptions{})

	change := report.Results["maven"].Succeeded[0].Changes[0]
	assert.False(t, change.Success)
	assert.Contains(t, change.Reason, "excluded")
	assert.Equal(t, "Ask the platform team", change.Tip)
	assert.Zero(t, rec.writes)
}

func TestFix_InvalidUpgradeTarget(t *testing.T) {
	ws := memWorkspace(t, "simple-app")
	upgrades := map[string]domain.UpgradeInstruction{
		springFrom: {UpgradeTo: "org.springframework:spring-beans@5.0.6.RELEASE"},
	}

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(ws, upgrades)}, domain.FixOptions{})

	change := report.Results["maven"].Succeeded[0].Changes[0]
	assert.False(t, change.Success)
	assert.Contains(t, change.Reason, "invalid upgrade target")
}

func TestFix_ReadFailureFailsProject(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "simple-app"), readErr: os.ErrPermission}

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(rec, springUpgrade())}, domain.FixOptions{})

	res := report.Results["maven"]
	assert.Empty(t, res.Succeeded)
	require.Len(t, res.Failed, 1)
	var ioErr *domain.ManifestIOError
	require.True(t, errors.As(res.Failed[0].Err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.Equal(t, domain.DefaultTip, res.Failed[0].Tip)
}

func TestFix_MissingFileFailsProject(t *testing.T) {
	ws := workspace.New(memfs.New())

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(ws, springUpgrade())}, domain.FixOptions{})

	require.Len(t, report.Results["maven"].Failed, 1)
	assert.Contains(t, report.Results["maven"].Failed[0].Error, "read pom.xml")
}

func TestFix_UnparseableManifestFailsProject(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "pom.xml", []byte("<notaproject/>"), 0644))

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(workspace.New(fs), springUpgrade())}, domain.FixOptions{})

	require.Len(t, report.Results["maven"].Failed, 1)
}

func TestFix_MissingWorkspaceFailsProject(t *testing.T) {
	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{mavenEntity(nil, springUpgrade())}, domain.FixOptions{})

	require.Len(t, report.Results["maven"].Failed, 1)
}

func TestFix_SkipsIneligible(t *testing.T) {
	ws := memWorkspace(t, "simple-app")
	noRemediation := mavenEntity(ws, nil)
	noRemediation.TestResult.Remediation = nil
	noUpgrades := mavenEntity(ws, map[string]domain.UpgradeInstruction{})

	report := newService(domain.DefaultConfig(), nil).Fix(
		[]domain.EntityToFix{noRemediation, noUpgrades, mavenEntity(ws, springUpgrade())}, domain.FixOptions{})

	res := report.Results["maven"]
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, domain.ReasonNoRemediation, res.Skipped[0].UserMessage)
	assert.Equal(t, domain.ReasonNoUpgrades, res.Skipped[1].UserMessage)
	assert.Len(t, res.Succeeded, 1)
}

func TestFix_UnsupportedTypeIsException(t *testing.T) {
	npm := domain.EntityToFix{ScanResult: domain.ScanResult{Identity: domain.Identity{Type: "npm", TargetFile: "package.json"}}}

	report := newService(domain.DefaultConfig(), nil).Fix([]domain.EntityToFix{npm, npm}, domain.FixOptions{})

	assert.Empty(t, report.Results)
	exc := report.Exceptions["npm"]
	require.NotNil(t, exc)
	assert.Len(t, exc.Originals, 2)
	assert.Equal(t, "Provided project type is not supported", exc.UserMessage)
}

// staticGit reports a fixed cleanliness state.
type staticGit struct{ clean bool }

func (g staticGit) CommitHash(string) (string, error)    { return "", errors.New("no repo") }
func (g staticGit) IsClean(string, string) (bool, error) { return g.clean, nil }

func TestFix_RequireCleanGit(t *testing.T) {
	rec := &recordingWorkspace{Workspace: memWorkspace(t, "simple-app")}
	cfg := domain.ProjectConfig{RequireCleanGit: true}
	svc := application.NewFixService("/repo", cfg, nil, staticGit{clean: false}, logr.Discard())

	report := svc.Fix([]domain.EntityToFix{mavenEntity(rec, springUpgrade())}, domain.FixOptions{})

	res := report.Results["maven"]
	require.Len(t, res.Failed, 1)
	var dirty *domain.DirtyManifestError
	assert.True(t, errors.As(res.Failed[0].Err, &dirty))
	assert.Equal(t, "Commit or stash your changes to pom.xml first", res.Failed[0].Tip)
	assert.Zero(t, rec.writes)

	svc = application.NewFixService("/repo", cfg, nil, staticGit{clean: true}, logr.Discard())
	report = svc.Fix([]domain.EntityToFix{mavenEntity(rec, springUpgrade())}, domain.FixOptions{})
	assert.Len(t, report.Results["maven"].Succeeded, 1)
}
