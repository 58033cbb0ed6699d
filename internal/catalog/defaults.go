package catalog

func rng(low, high float64) *Range {
	return &Range{Low: low, High: high}
}

// defaultEntries covers the panels most often seen on routine reports:
// blood count, glucose, lipids, renal, electrolytes, liver, thyroid and
// vitamins. Reference ranges are adult ranges.
var defaultEntries = []Entry{
	{
		Key:         "hemoglobin",
		DisplayName: "Hemoglobin",
		Unit:        "g/dL",
		UnitAliases: []string{"gm/dL", "g/100mL"},
		Reference:   Range{Low: 12.0, High: 15.0},
		Critical:    rng(7, 20),
		Physical:    rng(0, 25),
		Aliases:     []string{"hb", "hgb", "haemoglobin"},
	},
	{
		Key:         "hematocrit",
		DisplayName: "Hematocrit",
		Unit:        "%",
		UnitAliases: []string{"percent", "L/L"},
		Reference:   Range{Low: 36, High: 46},
		Critical:    rng(20, 60),
		Physical:    rng(0, 100),
		Aliases:     []string{"hct", "pcv", "haematocrit", "packed cell volume"},
	},
	{
		Key:         "rbc",
		DisplayName: "Red Blood Cell Count",
		Unit:        "million/µL",
		UnitAliases: []string{"10^6/µL", "x10^6/uL", "mill/cumm", "10^12/L"},
		Reference:   Range{Low: 4.0, High: 5.5},
		Physical:    rng(0, 10),
		Aliases:     []string{"rbc count", "red cell count", "erythrocytes", "erythrocyte count"},
	},
	{
		Key:         "wbc",
		DisplayName: "White Blood Cell Count",
		Unit:        "10^3/µL",
		UnitAliases: []string{"x10^3/uL", "10^9/L", "thou/cumm", "K/uL"},
		Reference:   Range{Low: 4.0, High: 11.0},
		Critical:    rng(2, 30),
		Physical:    rng(0, 500),
		Aliases:     []string{"tlc", "total leucocyte count", "total leukocyte count", "white cell count", "leukocytes"},
	},
	{
		Key:         "platelets",
		DisplayName: "Platelet Count",
		Unit:        "10^3/µL",
		UnitAliases: []string{"x10^3/uL", "10^9/L", "thou/cumm", "K/uL", "lakhs/cumm"},
		Reference:   Range{Low: 150, High: 400},
		Critical:    rng(50, 1000),
		Physical:    rng(0, 3000),
		Aliases:     []string{"plt", "platelet", "thrombocytes"},
	},
	{
		Key:         "glucose",
		DisplayName: "Glucose",
		Unit:        "mg/dL",
		UnitAliases: []string{"mg%"},
		Reference:   Range{Low: 70, High: 100},
		Critical:    rng(40, 400),
		Physical:    rng(0, 2000),
		Aliases:     []string{"blood sugar", "fbs", "fasting blood sugar", "blood glucose", "fasting glucose", "glu"},
	},
	{
		Key:         "hba1c",
		DisplayName: "HbA1c",
		Unit:        "%",
		UnitAliases: []string{"percent"},
		Reference:   Range{Low: 4.0, High: 5.6},
		Physical:    rng(0, 20),
		Aliases:     []string{"glycated hemoglobin", "glycosylated hemoglobin", "a1c"},
	},
	{
		Key:         "total_cholesterol",
		DisplayName: "Total Cholesterol",
		Unit:        "mg/dL",
		UnitAliases: []string{"mg%"},
		Reference:   Range{Low: 125, High: 200},
		Physical:    rng(0, 1000),
		Aliases:     []string{"cholesterol", "chol", "tc", "serum cholesterol", "cholesterol total"},
	},
	{
		Key:         "hdl",
		DisplayName: "HDL Cholesterol",
		Unit:        "mg/dL",
		Reference:   Range{Low: 40, High: 60},
		Physical:    rng(0, 200),
		Aliases:     []string{"hdl c", "high density lipoprotein"},
	},
	{
		Key:         "ldl",
		DisplayName: "LDL Cholesterol",
		Unit:        "mg/dL",
		Reference:   Range{Low: 0, High: 100},
		Physical:    rng(0, 700),
		Aliases:     []string{"ldl c", "low density lipoprotein"},
	},
	{
		Key:         "triglycerides",
		DisplayName: "Triglycerides",
		Unit:        "mg/dL",
		Reference:   Range{Low: 0, High: 150},
		Physical:    rng(0, 5000),
		Aliases:     []string{"tg", "trigs", "triglyceride"},
	},
	{
		Key:         "creatinine",
		DisplayName: "Creatinine",
		Unit:        "mg/dL",
		Reference:   Range{Low: 0.6, High: 1.2},
		Physical:    rng(0, 30),
		Aliases:     []string{"creat", "cr", "serum creatinine", "s creatinine"},
	},
	{
		Key:         "bun",
		DisplayName: "Blood Urea Nitrogen",
		Unit:        "mg/dL",
		Reference:   Range{Low: 7, High: 20},
		Physical:    rng(0, 300),
		Aliases:     []string{"urea nitrogen"},
	},
	{
		Key:         "sodium",
		DisplayName: "Sodium",
		Unit:        "mmol/L",
		UnitAliases: []string{"mEq/L"},
		Reference:   Range{Low: 135, High: 145},
		Critical:    rng(120, 160),
		Physical:    rng(80, 200),
		Aliases:     []string{"na", "serum sodium"},
	},
	{
		Key:         "potassium",
		DisplayName: "Potassium",
		Unit:        "mmol/L",
		UnitAliases: []string{"mEq/L"},
		Reference:   Range{Low: 3.5, High: 5.1},
		Critical:    rng(2.5, 6.5),
		Physical:    rng(0.5, 15),
		Aliases:     []string{"k", "serum potassium"},
	},
	{
		Key:         "chloride",
		DisplayName: "Chloride",
		Unit:        "mmol/L",
		UnitAliases: []string{"mEq/L"},
		Reference:   Range{Low: 98, High: 107},
		Physical:    rng(50, 150),
		Aliases:     []string{"cl", "serum chloride"},
	},
	{
		Key:         "calcium",
		DisplayName: "Calcium",
		Unit:        "mg/dL",
		Reference:   Range{Low: 8.5, High: 10.5},
		Critical:    rng(6, 13),
		Physical:    rng(0, 25),
		Aliases:     []string{"ca", "total calcium", "serum calcium"},
	},
	{
		Key:         "phosphate",
		DisplayName: "Phosphate",
		Unit:        "mg/dL",
		Reference:   Range{Low: 2.5, High: 4.5},
		Physical:    rng(0, 20),
		Aliases:     []string{"phosphorus", "inorganic phosphate", "po4", "phos"},
	},
	{
		Key:         "alt",
		DisplayName: "ALT (SGPT)",
		Unit:        "U/L",
		UnitAliases: []string{"IU/L"},
		Reference:   Range{Low: 7, High: 56},
		Physical:    rng(0, 10000),
		Aliases:     []string{"sgpt", "alanine aminotransferase", "alanine transaminase"},
	},
	{
		Key:         "ast",
		DisplayName: "AST (SGOT)",
		Unit:        "U/L",
		UnitAliases: []string{"IU/L"},
		Reference:   Range{Low: 10, High: 40},
		Physical:    rng(0, 10000),
		Aliases:     []string{"sgot", "aspartate aminotransferase", "aspartate transaminase"},
	},
	{
		Key:         "bilirubin_total",
		DisplayName: "Total Bilirubin",
		Unit:        "mg/dL",
		Reference:   Range{Low: 0.1, High: 1.2},
		Physical:    rng(0, 50),
		Aliases:     []string{"bilirubin", "tbil", "bilirubin total", "serum bilirubin"},
	},
	{
		Key:         "tsh",
		DisplayName: "TSH",
		Unit:        "µIU/mL",
		UnitAliases: []string{"mIU/L", "uIU/mL", "mU/L"},
		Reference:   Range{Low: 0.4, High: 4.0},
		Physical:    rng(0, 500),
		Aliases:     []string{"thyroid stimulating hormone", "thyrotropin"},
	},
	{
		Key:         "vitamin_d",
		DisplayName: "Vitamin D (25-OH)",
		Unit:        "ng/mL",
		UnitAliases: []string{"mcg/L"},
		Reference:   Range{Low: 30, High: 100},
		Physical:    rng(0, 300),
		Aliases:     []string{"vitamin d", "vit d", "25 oh vitamin d", "25 hydroxy vitamin d"},
	},
	{
		Key:         "vitamin_b12",
		DisplayName: "Vitamin B12",
		Unit:        "pg/mL",
		UnitAliases: []string{"ng/L"},
		Reference:   Range{Low: 200, High: 900},
		Physical:    rng(0, 5000),
		Aliases:     []string{"vit b12", "b12", "cobalamin"},
	},
	{
		Key:         "iron",
		DisplayName: "Serum Iron",
		Unit:        "µg/dL",
		UnitAliases: []string{"mcg/dL"},
		Reference:   Range{Low: 60, High: 170},
		Physical:    rng(0, 1000),
		Aliases:     []string{"fe", "iron serum"},
	},
	{
		Key:         "uric_acid",
		DisplayName: "Uric Acid",
		Unit:        "mg/dL",
		Reference:   Range{Low: 3.5, High: 7.2},
		Physical:    rng(0, 30),
		Aliases:     []string{"urate", "serum uric acid"},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		// defaultEntries is static; a failure here is a programming error.
		panic(err)
	}
	return c
}
