// Package geo 提供地理召回需要的大圆距离计算。
package geo

import "math"

// earthRadiusKm 地球半径（公里）
const earthRadiusKm = 6371.0

// HaversineKm 计算两点之间的大圆距离，单位公里。
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return c * earthRadiusKm
}
