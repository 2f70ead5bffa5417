package seed

import (
	"github.com/yungbote/studytrack-backend/internal/types"
)

// SeedTopic is one catalog tuple. ParentName, when set, refers to another
// topic of the same subject by name; it is resolved in a second pass so a
// parent may appear later in the same catalog or in a different one.
type SeedTopic struct {
	SubjectID  int
	Name       string
	Priority   int
	EstMinutes int
	ParentName string
}

// Catalog is one ordered seed source. Catalogs merge in slice order with
// insert-or-ignore semantics keyed by (subject id, topic name), so earlier
// catalogs take priority. Baseline marks secondary sources whose topics
// get the one-time progress upgrade on first introduction.
type Catalog struct {
	Name     string
	Subjects []types.Subject
	Topics   []SeedTopic
	Baseline bool
}

// Sources returns all catalogs in merge priority order, primary first.
func Sources() []Catalog {
	return []Catalog{Primary(), Vault()}
}

func Primary() Catalog {
	return Catalog{
		Name: "primary",
		Subjects: []types.Subject{
			{ID: 1, Name: "Anatomy", Code: "ANAT", Color: "#E57373", ExamWeight: 0.9, YieldWeight: 0.8, DisplayOrder: 1},
			{ID: 2, Name: "Physiology", Code: "PHYS", Color: "#64B5F6", ExamWeight: 1.0, YieldWeight: 0.9, DisplayOrder: 2},
			{ID: 3, Name: "Biochemistry", Code: "BIOC", Color: "#81C784", ExamWeight: 0.7, YieldWeight: 0.6, DisplayOrder: 3},
			{ID: 4, Name: "Pathology", Code: "PATH", Color: "#BA68C8", ExamWeight: 1.0, YieldWeight: 1.0, DisplayOrder: 4},
			{ID: 5, Name: "Pharmacology", Code: "PHARM", Color: "#FFB74D", ExamWeight: 0.9, YieldWeight: 0.9, DisplayOrder: 5},
			{ID: 6, Name: "Microbiology", Code: "MICRO", Color: "#4DB6AC", ExamWeight: 0.8, YieldWeight: 0.7, DisplayOrder: 6},
		},
		Topics: []SeedTopic{
			// Anatomy
			{SubjectID: 1, Name: "Neuroanatomy", Priority: 5, EstMinutes: 240},
			{SubjectID: 1, Name: "Brachial Plexus", Priority: 4, EstMinutes: 90, ParentName: "Upper Limb"},
			// Parent listed after its child on purpose; pass 2 resolves it.
			{SubjectID: 1, Name: "Upper Limb", Priority: 4, EstMinutes: 180},
			{SubjectID: 1, Name: "Head and Neck", Priority: 5, EstMinutes: 300},
			{SubjectID: 1, Name: "Cranial Nerves", Priority: 5, EstMinutes: 120, ParentName: "Head and Neck"},
			{SubjectID: 1, Name: "Thorax", Priority: 3, EstMinutes: 150},

			// Physiology
			{SubjectID: 2, Name: "Cardiovascular Physiology", Priority: 5, EstMinutes: 300},
			{SubjectID: 2, Name: "Cardiac Cycle", Priority: 5, EstMinutes: 90, ParentName: "Cardiovascular Physiology"},
			{SubjectID: 2, Name: "Renin Angiotensin System Review", Priority: 4, EstMinutes: 60, ParentName: "Cardiovascular Physiology"},
			{SubjectID: 2, Name: "Respiratory Physiology", Priority: 4, EstMinutes: 240},
			{SubjectID: 2, Name: "Renal Physiology", Priority: 5, EstMinutes: 240},
			{SubjectID: 2, Name: "Endocrine Physiology", Priority: 4, EstMinutes: 210},
			{SubjectID: 2, Name: "Neurophysiology", Priority: 4, EstMinutes: 270},

			// Biochemistry
			{SubjectID: 3, Name: "Enzymes", Priority: 4, EstMinutes: 120},
			{SubjectID: 3, Name: "Carbohydrate Metabolism", Priority: 4, EstMinutes: 180},
			{SubjectID: 3, Name: "Glycolysis", Priority: 4, EstMinutes: 60, ParentName: "Carbohydrate Metabolism"},
			{SubjectID: 3, Name: "Molecular Biology", Priority: 3, EstMinutes: 210},

			// Pathology
			{SubjectID: 4, Name: "Cell Injury", Priority: 5, EstMinutes: 150},
			{SubjectID: 4, Name: "Neoplasia", Priority: 5, EstMinutes: 240},
			{SubjectID: 4, Name: "Inflammation", Priority: 4, EstMinutes: 120},
			{SubjectID: 4, Name: "Hemodynamics", Priority: 4, EstMinutes: 120},

			// Pharmacology
			{SubjectID: 5, Name: "General Pharmacology", Priority: 4, EstMinutes: 180},
			{SubjectID: 5, Name: "Pharmacokinetics", Priority: 4, EstMinutes: 90, ParentName: "General Pharmacology"},
			{SubjectID: 5, Name: "Autonomic Nervous System Drugs", Priority: 5, EstMinutes: 240},
			{SubjectID: 5, Name: "Antimicrobials", Priority: 5, EstMinutes: 270},

			// Microbiology
			{SubjectID: 6, Name: "Bacteriology", Priority: 4, EstMinutes: 240},
			{SubjectID: 6, Name: "Virology", Priority: 4, EstMinutes: 210},
			{SubjectID: 6, Name: "Immunology", Priority: 5, EstMinutes: 240},
		},
	}
}

// Vault is the secondary catalog imported from the user's notes vault.
// Its topics merge after the primary catalog (duplicates are ignored) and
// receive the one-time baseline progress upgrade, since a vault note means
// the topic has already been seen at least once.
func Vault() Catalog {
	return Catalog{
		Name:     "vault",
		Baseline: true,
		Topics: []SeedTopic{
			{SubjectID: 1, Name: "Neuroanatomy", Priority: 5, EstMinutes: 240},
			{SubjectID: 1, Name: "Lower Limb", Priority: 3, EstMinutes: 180},
			{SubjectID: 2, Name: "Acid Base Balance", Priority: 4, EstMinutes: 90, ParentName: "Renal Physiology"},
			{SubjectID: 3, Name: "Vitamins", Priority: 3, EstMinutes: 120},
			{SubjectID: 4, Name: "Amyloidosis", Priority: 3, EstMinutes: 60, ParentName: "Cell Injury"},
			{SubjectID: 5, Name: "Antihypertensives", Priority: 4, EstMinutes: 120},
			{SubjectID: 6, Name: "Mycology", Priority: 2, EstMinutes: 90},
		},
	}
}
