package policy

// PPELabels таблица классов модели ppe.pt. Правила для неё
// встроены в policyfile (ppe.yaml).
var PPELabels = []string{
	"Hardhat", "Mask", "NO-Hardhat", "NO-Mask", "NO-Safety Vest",
	"Person", "Safety Cone", "Safety Vest", "machinery", "vehicle",
}
