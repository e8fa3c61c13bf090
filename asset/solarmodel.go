package asset

import (
	"math"

	"github.com/sixdouglas/suncalc"
)

// simpleGHIToDHISplit is the fixed diffuse-fraction constant from the
// power-model coefficients table: DHI = 0.32 * GHI.
const simpleGHIToDHISplit = 0.32

// simpleSolar implements the flat derating model: P = derating * GHI * C,
// capped at C by the caller.
func simpleSolar(derating, ghiKWm2, capacityKW float64) float64 {
	return derating * ghiKWm2 * capacityKW
}

// detailedSolar computes plane-of-array irradiance from GHI using solar
// position (from suncalc, rather than hand-rolled ecliptic trigonometry)
// to split beam, isotropic diffuse, and ground-reflected components.
func detailedSolar(r *Renewable, sample ResourceSample) float64 {
	ghi := sample.Scalar
	if ghi <= 0 {
		return 0
	}

	pos := suncalc.GetPosition(sample.Time, r.Geometry.Latitude, r.Geometry.Longitude)
	altitudeDeg := pos.Altitude * 180 / math.Pi
	if altitudeDeg <= -0.56 {
		return 0 // sun below the horizon, no low-altitude refraction to apply
	}
	altitudeDeg = refractionCorrected(altitudeDeg)

	zenithRad := wrapRad(math.Pi/2 - altitudeDeg*math.Pi/180)
	azimuthRad := wrapRad(pos.Azimuth)

	dhi := simpleGHIToDHISplit * ghi
	dni := dhiToDNI(ghi, dhi, zenithRad)

	tiltRad := r.Geometry.TiltDeg * math.Pi / 180
	panelAzRad := r.Geometry.AzimuthDeg * math.Pi / 180

	cosIncidence := math.Cos(zenithRad)*math.Cos(tiltRad) +
		math.Sin(zenithRad)*math.Sin(tiltRad)*math.Cos(azimuthRad-panelAzRad)
	if cosIncidence < 0 {
		cosIncidence = 0
	}

	beam := dni * cosIncidence
	diffuse := dhi * (1 + math.Cos(tiltRad)) / 2
	groundReflected := ghi * r.Geometry.GroundAlbedo * (1 - math.Cos(tiltRad)) / 2

	poa := beam + diffuse + groundReflected
	return r.Derating * poa * r.CapacityKW / math.Max(ghi, 1e-9)
}

// dhiToDNI backs out direct-normal irradiance from GHI and DHI given the
// solar zenith angle: GHI = DHI + DNI*cos(zenith).
func dhiToDNI(ghi, dhi float64, zenithRad float64) float64 {
	cosZ := math.Cos(zenithRad)
	if cosZ <= 0.01 {
		return 0
	}
	dni := (ghi - dhi) / cosZ
	if dni < 0 {
		return 0
	}
	return dni
}

// refractionCorrected applies the standard low-altitude atmospheric
// refraction correction (in degrees) for altitude > -0.56 degrees.
func refractionCorrected(altitudeDeg float64) float64 {
	r := 1.02 / math.Tan((altitudeDeg+10.3/(altitudeDeg+5.11))*math.Pi/180) / 60
	return altitudeDeg + r
}

// wrapRad wraps an angle into (-pi, pi].
func wrapRad(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// wrapDeg wraps an angle into [0, 360).
func wrapDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
