package signal

// lambdaFloorM bounds lambda = beta_gamma * ctau0 away from zero so the
// decay-probability exponentials never divide by zero at vanishing boost
// or vanishing lifetime (spec.md §4.5.1).
const lambdaFloorM = 1e-9

// pbToFbFactor converts a cross-section in picobarns combined with a
// luminosity in inverse femtobarns into a dimensionless event count: the
// factor of 10^3 spec.md §4.5.1 requires appear exactly once.
const pbToFbFactor = 1e3
