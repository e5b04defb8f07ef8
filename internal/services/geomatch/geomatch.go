package geomatch

import (
	"context"
	"math"
	"sort"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/pkg/errors"
)

const earthRadiusKm = 6371.0

type DriverSource interface {
	ListActive(ctx context.Context) ([]*models.Driver, error)
}

type Candidate struct {
	Driver     *models.Driver
	DistanceKm float64
}

type Matcher struct {
	src DriverSource
}

func New(src DriverSource) *Matcher {
	return &Matcher{src: src}
}

// FindNearby ранжирует активных водителей по дуге большого круга от точки
// забора: ближайший первым, дальше radiusKm никто не попадает, не больше limit.
// Пустой список — нормальный исход, не ошибка.
func (m *Matcher) FindNearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error) {
	if radiusKm <= 0 {
		return nil, errors.New("radiusKm must be positive")
	}
	if limit < 1 {
		return nil, errors.New("limit must be at least 1")
	}

	drivers, err := m.src.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list active drivers")
	}

	out := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if d.Latitude == nil || d.Longitude == nil || d.PushToken == "" {
			continue
		}
		dist := HaversineKm(lat, lng, *d.Latitude, *d.Longitude)
		if dist >= radiusKm {
			continue
		}
		out = append(out, Candidate{Driver: d, DistanceKm: dist})
	}

	// При равной дистанции порядок фиксируем по id, чтобы выбор был воспроизводим.
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Driver.ID < out[j].Driver.ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// HaversineKm — расстояние по сфере со средним радиусом Земли 6371 км.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degreesToRadians(lat1)
	phi2 := degreesToRadians(lat2)
	dPhi := degreesToRadians(lat2 - lat1)
	dLambda := degreesToRadians(lon2 - lon1)

	a := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
