package domain

// Support is the outcome of classifying an entity for automated fixing.
// Reason is set only when Supported is false.
type Support struct {
	Supported bool
	Reason    string
}

const (
	ReasonNoRemediation   = "No remediation data available"
	ReasonNoActionablePin = "There is no actionable remediation to apply"
	ReasonNoUpgrades      = "There is no actionable upgrades to apply"
	ReasonUnknownType     = "Unknown type"
)

// IsSupported decides whether entity is a candidate for automated fixing.
func IsSupported(entity EntityToFix) Support {
	remediation := entity.TestResult.Remediation
	if remediation == nil {
		return Support{Reason: ReasonNoRemediation}
	}

	switch entity.ScanResult.Identity.Type {
	case "pip", "poetry":
		if len(remediation.Pin) == 0 {
			return Support{Reason: ReasonNoActionablePin}
		}
	case "maven":
		if len(remediation.Upgrade) == 0 {
			return Support{Reason: ReasonNoUpgrades}
		}
	default:
		return Support{Reason: ReasonUnknownType}
	}

	return Support{Supported: true}
}

// PartitionByFixable splits entities into fixable ones and skipped ones
// carrying the reason they were skipped. Input order is kept in both.
func PartitionByFixable(entities []EntityToFix) (fixable []EntityToFix, skipped []SkippedEntry) {
	fixable = []EntityToFix{}
	skipped = []SkippedEntry{}
	for _, entity := range entities {
		res := IsSupported(entity)
		if res.Supported {
			fixable = append(fixable, entity)
			continue
		}
		skipped = append(skipped, SkippedEntry{Original: entity, UserMessage: res.Reason})
	}
	return fixable, skipped
}
