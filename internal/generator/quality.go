package generator

// StructuralScore holds the individual structural compliance checks.
type StructuralScore struct {
	QuestionLengthOK   bool
	AllOptionsInRange  bool
	ExplanationPresent bool
	CheatKeyPresent    bool
	KoreanText         bool
}

// ComputeStructuralScore evaluates structural compliance for a single question.
func ComputeStructuralScore(q GeneratedQuestion) StructuralScore {
	qLen := len([]rune(q.Question))

	optionsOK := len(q.Options) > 0
	for _, o := range q.Options {
		n := len([]rune(o))
		if n < 1 || n > 120 {
			optionsOK = false
		}
	}

	return StructuralScore{
		QuestionLengthOK:   qLen >= 10 && qLen <= 300,
		AllOptionsInRange:  optionsOK,
		ExplanationPresent: len([]rune(q.Explanation)) >= 10,
		CheatKeyPresent:    q.CheatKey != "",
		KoreanText:         hasKorean(q.Question),
	}
}

// ComputeQualityScore calculates a composite quality score (0.0-1.0).
//
// Formula: verification_confidence * 0.60 + structural * 0.40
func ComputeQualityScore(vr *ValidationResult, structural StructuralScore) float64 {
	verificationScore := 0.4 // default low if no validation
	if vr != nil {
		if !vr.Matches {
			verificationScore = 0.0
		} else {
			switch vr.Confidence {
			case "high":
				verificationScore = 1.0
			case "medium":
				verificationScore = 0.7
			case "low":
				verificationScore = 0.4
			}
		}
	}

	// Structural compliance score (5 checks, each worth 0.20)
	checks := []bool{
		structural.QuestionLengthOK,
		structural.AllOptionsInRange,
		structural.ExplanationPresent,
		structural.CheatKeyPresent,
		structural.KoreanText,
	}
	structuralScore := 0.0
	for _, ok := range checks {
		if ok {
			structuralScore += 0.20
		}
	}

	return verificationScore*0.60 + structuralScore*0.40
}

// ClassifyQuality returns a classification based on the quality score.
// Returns: "reject" (< 0.50), "flagged" (0.50-0.70), "passed" (> 0.70)
func ClassifyQuality(score float64) string {
	if score < 0.50 {
		return "reject"
	}
	if score <= 0.70 {
		return "flagged"
	}
	return "passed"
}
