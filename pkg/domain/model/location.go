package model

import "github.com/m-mizutani/goerr/v2"

const geoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type" firestore:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" firestore:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) *GeoPoint {
	return &GeoPoint{
		Type:        geoPointType,
		Coordinates: []float64{longitude, latitude},
	}
}

func (p *GeoPoint) Longitude() float64 {
	return p.Coordinates[0]
}

func (p *GeoPoint) Latitude() float64 {
	return p.Coordinates[1]
}

// Validate checks the shape and range of the point. An empty type is
// accepted and treated as "Point".
func (p *GeoPoint) Validate() error {
	if p.Type != "" && p.Type != geoPointType {
		return validationError("coordinates.type", "coordinates must be a GeoJSON Point", goerr.V("type", p.Type))
	}
	if len(p.Coordinates) != 2 {
		return validationError("coordinates", "coordinates must be [longitude, latitude]", goerr.V("length", len(p.Coordinates)))
	}
	return ValidateLongLat(p.Coordinates[0], p.Coordinates[1])
}

// ValidateLongLat checks longitude is within [-180, 180] and latitude within
// [-90, 90].
func ValidateLongLat(longitude, latitude float64) error {
	if longitude < -180 || longitude > 180 {
		return validationError("longitude", "longitude must be between -180 and 180", goerr.V("longitude", longitude))
	}
	if latitude < -90 || latitude > 90 {
		return validationError("latitude", "latitude must be between -90 and 90", goerr.V("latitude", latitude))
	}
	return nil
}

// Location is where a case or an incident took place. Cases use Region and
// reports use City.
type Location struct {
	Country     string    `json:"country" bson:"country" firestore:"country"`
	Region      string    `json:"region,omitempty" bson:"region,omitempty" firestore:"region,omitempty"`
	City        string    `json:"city,omitempty" bson:"city,omitempty" firestore:"city,omitempty"`
	Coordinates *GeoPoint `json:"coordinates,omitempty" bson:"coordinates,omitempty" firestore:"coordinates,omitempty"`
}

func (l *Location) Validate() error {
	if l.Country == "" {
		return validationError("location.country", "location country is required")
	}
	if l.Coordinates != nil {
		if err := l.Coordinates.Validate(); err != nil {
			return err
		}
		l.Coordinates.Type = geoPointType
	}
	return nil
}
