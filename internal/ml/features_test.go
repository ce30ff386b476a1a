package ml

import "testing"

func validFeatures() HouseFeatures {
	return HouseFeatures{
		Longitude:        -122.23,
		Latitude:         37.88,
		HousingMedianAge: 41,
		TotalRooms:       880,
		TotalBedrooms:    129,
		Population:       322,
		Households:       126,
		MedianIncome:     8.3252,
		OceanProximity:   "NEAR BAY",
	}
}

func TestFeatureColumns(t *testing.T) {
	cols := FeatureColumns()
	if len(cols) != 13 {
		t.Fatalf("column count = %d, want 13 (8 numeric + 5 one-hot)", len(cols))
	}
	if cols[0] != "longitude" {
		t.Errorf("cols[0] = %q, want longitude", cols[0])
	}
	if cols[8] != "ocean_proximity_<1H OCEAN" {
		t.Errorf("cols[8] = %q, want ocean_proximity_<1H OCEAN", cols[8])
	}
}

func TestValidate(t *testing.T) {
	f := validFeatures()
	if err := f.Validate(); err != nil {
		t.Errorf("valid features rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*HouseFeatures)
	}{
		{"longitude too low", func(f *HouseFeatures) { f.Longitude = -181 }},
		{"longitude too high", func(f *HouseFeatures) { f.Longitude = 181 }},
		{"latitude too low", func(f *HouseFeatures) { f.Latitude = -91 }},
		{"latitude too high", func(f *HouseFeatures) { f.Latitude = 91 }},
		{"age negative", func(f *HouseFeatures) { f.HousingMedianAge = -1 }},
		{"age too high", func(f *HouseFeatures) { f.HousingMedianAge = 101 }},
		{"rooms negative", func(f *HouseFeatures) { f.TotalRooms = -1 }},
		{"bedrooms negative", func(f *HouseFeatures) { f.TotalBedrooms = -1 }},
		{"population negative", func(f *HouseFeatures) { f.Population = -1 }},
		{"households negative", func(f *HouseFeatures) { f.Households = -1 }},
		{"income negative", func(f *HouseFeatures) { f.MedianIncome = -0.1 }},
		{"empty proximity", func(f *HouseFeatures) { f.OceanProximity = "" }},
		{"unknown proximity", func(f *HouseFeatures) { f.OceanProximity = "near bay" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeatures()
			tt.mutate(&f)
			if err := f.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEncode_OneHot(t *testing.T) {
	for _, category := range OceanProximityValues {
		f := validFeatures()
		f.OceanProximity = category
		x := f.Encode()

		if len(x) != 13 {
			t.Fatalf("encoded width = %d, want 13", len(x))
		}

		hot := 0
		for _, v := range OceanProximityValues {
			col := oceanProximityPrefix + v
			val, ok := x[col]
			if !ok {
				t.Fatalf("missing one-hot column %q", col)
			}
			if val == 1 {
				hot++
				if v != category {
					t.Errorf("column %q hot for category %q", col, category)
				}
			} else if val != 0 {
				t.Errorf("column %q = %v, want 0 or 1", col, val)
			}
		}
		if hot != 1 {
			t.Errorf("category %q: %d hot columns, want exactly 1", category, hot)
		}
	}
}

func TestEncode_Numerics(t *testing.T) {
	f := validFeatures()
	x := f.Encode()

	if x["longitude"] != f.Longitude {
		t.Errorf("longitude = %v, want %v", x["longitude"], f.Longitude)
	}
	if x["median_income"] != f.MedianIncome {
		t.Errorf("median_income = %v, want %v", x["median_income"], f.MedianIncome)
	}
}
