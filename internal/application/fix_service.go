package application

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/vulnfix/vulnfix/internal/domain"
	"github.com/vulnfix/vulnfix/internal/domain/pom"
)

const (
	pluginMaven = "maven"

	unsupportedTypeMessage = "Provided project type is not supported"
	missingDataTip         = "Make sure the project was scanned with a manifest file and a workspace"
)

// pluginByType maps a project type to the plugin that fixes it.
var pluginByType = map[string]string{
	"maven": pluginMaven,
}

// FixService applies remediation upgrades to project manifests:
// route by plugin → skip ineligible → per project read → patch each upgrade → write once.
type FixService struct {
	root    string
	config  domain.ProjectConfig
	backups domain.BackupStore
	git     domain.GitInfo
	log     logr.Logger
}

// NewFixService creates a FixService. backups and git may be nil.
func NewFixService(root string, cfg domain.ProjectConfig, backups domain.BackupStore, git domain.GitInfo, log logr.Logger) *FixService {
	return &FixService{root: root, config: cfg, backups: backups, git: git, log: log}
}

// Fix processes every entity and reports the outcome grouped by plugin.
// All failures are represented in the report.
func (s *FixService) Fix(entities []domain.EntityToFix, opts domain.FixOptions) *domain.FixReport {
	report := &domain.FixReport{
		Results:    map[string]*domain.PluginResult{},
		Exceptions: map[string]*domain.FixException{},
		DryRun:     opts.DryRun,
	}

	var order []string
	byPlugin := map[string][]domain.EntityToFix{}
	for _, entity := range entities {
		typ := entity.ScanResult.Identity.Type
		plugin, ok := pluginByType[typ]
		if !ok {
			exc, seen := report.Exceptions[typ]
			if !seen {
				exc = &domain.FixException{UserMessage: unsupportedTypeMessage}
				report.Exceptions[typ] = exc
			}
			exc.Originals = append(exc.Originals, entity)
			continue
		}
		if _, seen := byPlugin[plugin]; !seen {
			order = append(order, plugin)
		}
		byPlugin[plugin] = append(byPlugin[plugin], entity)
	}

	for _, plugin := range order {
		switch plugin {
		case pluginMaven:
			report.Results[plugin] = s.mavenFix(byPlugin[plugin], opts)
		}
	}

	return report
}

func (s *FixService) mavenFix(entities []domain.EntityToFix, opts domain.FixOptions) *domain.PluginResult {
	s.log.Info("fixing Maven projects", "count", len(entities), "dryRun", opts.DryRun)
	results := domain.NewPluginResult()

	// Drop unsupported entities early so only potentially fixable ones are attempted.
	fixable, skipped := domain.PartitionByFixable(entities)
	results.Skipped = append(results.Skipped, skipped...)

	for i, entity := range fixable {
		s.log.V(1).Info("fixing pom.xml", "index", i+1, "total", len(fixable),
			"targetFile", entity.ScanResult.Identity.TargetFile)
		results.Merge(s.updateDependencies(entity, opts))
	}
	return results
}

func (s *FixService) updateDependencies(entity domain.EntityToFix, opts domain.FixOptions) *domain.PluginResult {
	result := domain.NewPluginResult()
	targetFile := entity.ScanResult.Identity.TargetFile
	ws := entity.Workspace

	fail := func(err error, tip string) *domain.PluginResult {
		s.log.Info("failed to fix project", "targetFile", targetFile, "error", err.Error())
		result.Failed = append(result.Failed, domain.FailedEntry{
			Original: entity,
			Error:    err.Error(),
			Tip:      tip,
			Err:      err,
		})
		return result
	}

	if ws == nil || targetFile == "" {
		return fail(errors.New("missing workspace or target file"), missingDataTip)
	}

	if s.config.RequireCleanGit && s.git != nil {
		clean, err := s.git.IsClean(s.root, targetFile)
		if err != nil {
			s.log.V(1).Info("skipping git cleanliness check", "error", err.Error())
		} else if !clean {
			return fail(&domain.DirtyManifestError{Path: targetFile},
				fmt.Sprintf("Commit or stash your changes to %s first", targetFile))
		}
	}

	original, err := ws.ReadFile(targetFile)
	if err != nil {
		return fail(&domain.ManifestIOError{Op: "read", Path: targetFile, Err: err}, s.config.EffectiveTip())
	}
	if _, err := pom.Parse(original); err != nil {
		return fail(err, s.config.EffectiveTip())
	}

	upgrades := entity.TestResult.Remediation.Upgrade
	keys := make([]string, 0, len(upgrades))
	for k := range upgrades {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	current := original
	changed := false
	changes := make([]domain.ChangeOutcome, 0, len(keys))
	for _, key := range keys {
		next, outcome := s.applyUpgrade(current, key, upgrades[key])
		if outcome.Success {
			current = next
			changed = true
		}
		changes = append(changes, outcome)
	}

	if changed && !opts.DryRun {
		if s.backups != nil && s.config.BackupEnabled() {
			if err := s.backups.Save(targetFile, original); err != nil {
				return fail(&domain.ManifestIOError{Op: "backup", Path: targetFile, Err: err}, s.config.EffectiveTip())
			}
		}
		if err := ws.WriteFile(targetFile, current); err != nil {
			return fail(&domain.ManifestIOError{Op: "write", Path: targetFile, Err: err}, s.config.EffectiveTip())
		}
	}

	result.Succeeded = append(result.Succeeded, domain.SucceededEntry{Original: entity, Changes: changes})
	return result
}

// applyUpgrade rewrites text for one upgrade instruction. On failure text
// is returned unchanged.
func (s *FixService) applyUpgrade(text, upgradeFrom string, upgrade domain.UpgradeInstruction) (string, domain.ChangeOutcome) {
	pkgName, version := domain.PackageVersion(upgradeFrom)
	toPkg, newVersion := domain.PackageVersion(upgrade.UpgradeTo)

	failed := func(err error) (string, domain.ChangeOutcome) {
		s.log.V(1).Info("upgrade failed", "package", pkgName, "error", err.Error())
		return text, domain.ChangeOutcome{
			Success:     false,
			Reason:      err.Error(),
			UserMessage: fmt.Sprintf("Failed to upgrade %s from %s to %s", pkgName, version, newVersion),
			Tip:         s.config.EffectiveTip(),
			IssueIDs:    upgrade.Vulns,
		}
	}

	if s.config.IsExcluded(pkgName) {
		return failed(&domain.ExcludedPackageError{Package: pkgName})
	}
	coord, err := domain.ParseCoordinate(pkgName)
	if err != nil {
		return failed(err)
	}
	if toPkg != pkgName || newVersion == "" {
		return failed(fmt.Errorf("invalid upgrade target %q for %s", upgrade.UpgradeTo, pkgName))
	}

	doc, err := pom.Parse(text)
	if err != nil {
		return failed(err)
	}
	dep, ok := doc.FindDependency(coord)
	if !ok {
		return failed(&domain.DependencyNotFoundError{Upgrade: upgradeFrom})
	}

	provenance := pom.ResolveVersion(dep, doc)
	patched, err := pom.ApplyVersionPatch(text, provenance, newVersion)
	if err != nil {
		return failed(err)
	}

	s.log.V(1).Info("applied upgrade", "package", pkgName, "from", version, "to", newVersion,
		"provenance", provenance.Kind())
	return patched, domain.ChangeOutcome{
		Success:     true,
		UserMessage: fmt.Sprintf("Upgraded %s from %s to %s", pkgName, version, newVersion),
		IssueIDs:    upgrade.Vulns,
		From:        upgradeFrom,
		To:          upgrade.UpgradeTo,
		Provenance:  provenance.Kind(),
	}
}
