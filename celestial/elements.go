package celestial

// elements are heliocentric Keplerian elements referred to the ecliptic and
// equinox of J2000, with their rates per Julian century.
type elements struct {
	A  float64 // Semi-major axis (AU)
	E  float64 // Eccentricity
	I  float64 // Inclination (degrees)
	L  float64 // Mean longitude (degrees)
	LP float64 // Longitude of perihelion (degrees)
	N  float64 // Longitude of ascending node (degrees)

	DA  float64
	DE  float64
	DI  float64
	DL  float64
	DLP float64
	DN  float64
}

// Approximate elements valid 1800-2050 (JPL).
var orbitalElements = map[Body]elements{
	Mercury: {
		A: 0.38709843, E: 0.20563661, I: 7.00559432,
		L: 252.25166724, LP: 77.45771895, N: 48.33961819,
		DA: 0.00000000, DE: 0.00002123, DI: -0.00590158,
		DL: 149472.67486623, DLP: 0.15940013, DN: -0.12214182,
	},
	Venus: {
		A: 0.72333566, E: 0.00677672, I: 3.39467605,
		L: 181.97970850, LP: 131.76755713, N: 76.67984255,
		DA: 0.00000390, DE: -0.00004107, DI: -0.00078890,
		DL: 58517.81538729, DLP: 0.05679648, DN: -0.27769418,
	},
	Earth: {
		A: 1.00000261, E: 0.01671123, I: -0.00001531,
		L: 100.46457166, LP: 102.93768193, N: 0.0,
		DA: 0.00000562, DE: -0.00004392, DI: -0.01294668,
		DL: 35999.37306329, DLP: 0.32327364, DN: 0.0,
	},
	Mars: {
		A: 1.52371034, E: 0.09339410, I: 1.84969142,
		L: -4.55343205, LP: -23.94362959, N: 49.55953891,
		DA: 0.00001847, DE: 0.00007882, DI: -0.00813131,
		DL: 19140.30268499, DLP: 0.44441088, DN: -0.29257343,
	},
	Jupiter: {
		A: 5.20288700, E: 0.04838624, I: 1.30439695,
		L: 34.39644051, LP: 14.72847983, N: 100.47390909,
		DA: -0.00011607, DE: -0.00013253, DI: -0.00183714,
		DL: 3034.74612775, DLP: 0.21252668, DN: 0.20469106,
	},
	Saturn: {
		A: 9.53667594, E: 0.05386179, I: 2.48599187,
		L: 49.95424423, LP: 92.59887831, N: 113.66242448,
		DA: -0.00125060, DE: -0.00050991, DI: 0.00193609,
		DL: 1222.49362201, DLP: -0.41897216, DN: -0.28867794,
	},
	Uranus: {
		A: 19.18916464, E: 0.04725744, I: 0.77263783,
		L: 313.23810451, LP: 170.95427630, N: 74.01692503,
		DA: -0.00196176, DE: -0.00004397, DI: -0.00242939,
		DL: 428.48202785, DLP: 0.40805281, DN: 0.04240589,
	},
	Neptune: {
		A: 30.06992276, E: 0.00859048, I: 1.77004347,
		L: -55.12002969, LP: 44.96476227, N: 131.78422574,
		DA: 0.00026291, DE: 0.00005105, DI: 0.00035372,
		DL: 218.45945325, DLP: -0.32241464, DN: -0.00508664,
	},
	Pluto: {
		A: 39.48211675, E: 0.24882730, I: 17.14001206,
		L: 238.92881780, LP: 224.06891629, N: 110.30393684,
		DA: -0.00031596, DE: 0.00005170, DI: 0.00004818,
		DL: 145.20780515, DLP: -0.04062942, DN: -0.01183482,
	},
}
