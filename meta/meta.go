// meta/meta.go
package meta

// MAX_CARS is the capacity of each location.
const MAX_CARS = 20

// MAX_MOVE caps the cars moved overnight in either direction.
const MAX_MOVE = 5

// Expected requests per day at the first and second location.
const RENTAL_RATE_FIRST = 3.0
const RENTAL_RATE_SECOND = 4.0

// Expected returns per day at the first and second location.
const RETURN_RATE_FIRST = 3.0
const RETURN_RATE_SECOND = 2.0

// TRUNCATION is the count from which probability mass is treated as zero.
const TRUNCATION = 11

const RENTAL_CREDIT = 10.0
const MOVE_COST = 2.0
const DISCOUNT = 0.9

// TOLERANCE stops policy evaluation once a sweep changes no value by more.
const TOLERANCE = 1e-4

// Caps against runaway loops
const MAX_SWEEPS = 10000
const MAX_ITERATIONS = 100
