package ibl

// these functions are only exported when running tests

var ResolveFace = resolveFace
var TexelDirection = texelDirection

var CosineLobeFactor = cosineLobeFactor
var EvalSHBasis = evalSHBasis
var ShNormalizations = shNormalizations
var ShIndex = shIndex

var GenerateHammersleySequence = generateHammersleySequence
var ImportanceSampleGGX = importanceSampleGGX
