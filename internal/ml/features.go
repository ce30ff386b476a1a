package ml

import "fmt"

// NumericFeatures are the raw numeric inputs, in the order the model was
// trained on.
var NumericFeatures = []string{
	"longitude",
	"latitude",
	"housing_median_age",
	"total_rooms",
	"total_bedrooms",
	"population",
	"households",
	"median_income",
}

// OceanProximityValues are the accepted categories for the ocean_proximity
// input. Each expands to one one-hot column.
var OceanProximityValues = []string{
	"<1H OCEAN",
	"INLAND",
	"ISLAND",
	"NEAR BAY",
	"NEAR OCEAN",
}

const oceanProximityPrefix = "ocean_proximity_"

// FeatureColumns returns every model input column: the numeric features
// followed by the one-hot encoded ocean_proximity columns.
func FeatureColumns() []string {
	cols := make([]string, 0, len(NumericFeatures)+len(OceanProximityValues))
	cols = append(cols, NumericFeatures...)
	for _, v := range OceanProximityValues {
		cols = append(cols, oceanProximityPrefix+v)
	}
	return cols
}

// HouseFeatures is the validated input for one prediction.
type HouseFeatures struct {
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	HousingMedianAge float64 `json:"housing_median_age"`
	TotalRooms       float64 `json:"total_rooms"`
	TotalBedrooms    float64 `json:"total_bedrooms"`
	Population       float64 `json:"population"`
	Households       float64 `json:"households"`
	MedianIncome     float64 `json:"median_income"`
	OceanProximity   string  `json:"ocean_proximity"`
}

// Validate checks every field against the ranges the model was trained on.
func (f *HouseFeatures) Validate() error {
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", f.Longitude)
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", f.Latitude)
	}
	if f.HousingMedianAge < 0 || f.HousingMedianAge > 100 {
		return fmt.Errorf("housing_median_age must be between 0 and 100, got %v", f.HousingMedianAge)
	}
	if f.TotalRooms < 0 {
		return fmt.Errorf("total_rooms must be non-negative, got %v", f.TotalRooms)
	}
	if f.TotalBedrooms < 0 {
		return fmt.Errorf("total_bedrooms must be non-negative, got %v", f.TotalBedrooms)
	}
	if f.Population < 0 {
		return fmt.Errorf("population must be non-negative, got %v", f.Population)
	}
	if f.Households < 0 {
		return fmt.Errorf("households must be non-negative, got %v", f.Households)
	}
	if f.MedianIncome < 0 {
		return fmt.Errorf("median_income must be non-negative, got %v", f.MedianIncome)
	}
	for _, v := range OceanProximityValues {
		if f.OceanProximity == v {
			return nil
		}
	}
	return fmt.Errorf("ocean_proximity must be one of %v, got %q", OceanProximityValues, f.OceanProximity)
}

// Encode converts the features into the model's column space, one-hot
// encoding the ocean_proximity category.
func (f *HouseFeatures) Encode() map[string]float64 {
	x := map[string]float64{
		"longitude":          f.Longitude,
		"latitude":           f.Latitude,
		"housing_median_age": f.HousingMedianAge,
		"total_rooms":        f.TotalRooms,
		"total_bedrooms":     f.TotalBedrooms,
		"population":         f.Population,
		"households":         f.Households,
		"median_income":      f.MedianIncome,
	}
	for _, v := range OceanProximityValues {
		val := 0.0
		if f.OceanProximity == v {
			val = 1.0
		}
		x[oceanProximityPrefix+v] = val
	}
	return x
}
