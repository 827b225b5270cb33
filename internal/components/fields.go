package components

type field struct {
	name, label string
	min, max    int
	value       int
}

// formFields are the prediction inputs in the order the classifier consumes
// them, with their semantic ranges and a neutral starting value.
var formFields = []field{
	{"JobRole", "Job role", 0, 8, 2},
	{"Department", "Department", 0, 5, 1},
	{"WorkLifeBalance", "Work-life balance", 1, 4, 3},
	{"JobSatisfaction", "Job satisfaction", 1, 4, 3},
	{"StockOptionLevel", "Stock option level", 0, 3, 1},
}
