package pacing

import "math"

// UpdateBalance applies the two-regime critical power model for one segment.
// Above FTP the reserve drains linearly with the excess work; at or below FTP
// it recovers exponentially toward wPrime with time constant tau.
// The result may be negative; see ReportedBalance.
func UpdateBalance(prev, targetPower, ftp, wPrime, timeSeconds, tau float64) float64 {
	if targetPower > ftp {
		return prev - (targetPower-ftp)*timeSeconds
	}
	return prev + (wPrime-prev)*(1-math.Exp(-timeSeconds/tau))
}

// ReportedBalance clamps an internal balance for display
func ReportedBalance(balance float64) float64 {
	return math.Max(0, balance)
}
