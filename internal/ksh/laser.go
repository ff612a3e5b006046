package ksh

// The 51-symbol laser position alphabet. Index in this string is the
// integer position, so '0' is the far left and 'o' the far right.
const laserAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmno"

// LaserRange is the highest laser position value.
const LaserRange = len(laserAlphabet) - 1

var laserValues [256]int

func init() {
	for i := range laserValues {
		laserValues[i] = -1
	}
	for i := 0; i < len(laserAlphabet); i++ {
		laserValues[laserAlphabet[i]] = i
	}
}

// LaserValue maps an alphabet character to its position 0..50.
func LaserValue(c byte) (int, bool) {
	v := laserValues[c]
	return v, v >= 0
}

// LaserImage is the inverse of LaserValue.
func LaserImage(v int) byte {
	return laserAlphabet[v]
}
