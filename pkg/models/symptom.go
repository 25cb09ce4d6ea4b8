package models

// SymptomKey identifies one yes/no question of the symptom questionnaire.
type SymptomKey string

const (
	SymptomCough               SymptomKey = "cough"
	SymptomCoughDuration       SymptomKey = "coughDuration"
	SymptomPhlegmGreen         SymptomKey = "phlegmGreen"
	SymptomPhlegmBlood         SymptomKey = "phlegmBlood"
	SymptomBreathingDifficulty SymptomKey = "breathingDifficulty"
	SymptomFever               SymptomKey = "fever"
	SymptomNightSweats         SymptomKey = "nightSweats"
	SymptomDiscomfort          SymptomKey = "discomfort"
	SymptomAppetiteLoss        SymptomKey = "appetiteLoss"
	SymptomWeightLoss          SymptomKey = "weightLoss"
	SymptomYellowPhlegm        SymptomKey = "yellowPhlegm"
	SymptomBreathingSound      SymptomKey = "breathingSound"
	SymptomVomiting            SymptomKey = "vomiting"
	SymptomDiarrhea            SymptomKey = "diarrhea"
)

var symptomKeys = []SymptomKey{
	SymptomCough,
	SymptomCoughDuration,
	SymptomPhlegmGreen,
	SymptomPhlegmBlood,
	SymptomBreathingDifficulty,
	SymptomFever,
	SymptomNightSweats,
	SymptomDiscomfort,
	SymptomAppetiteLoss,
	SymptomWeightLoss,
	SymptomYellowPhlegm,
	SymptomBreathingSound,
	SymptomVomiting,
	SymptomDiarrhea,
}

var symptomQuestions = map[SymptomKey]string{
	SymptomCough:               "Apakah kucing Anda mengalami batuk?",
	SymptomCoughDuration:       "Apakah batuk berlangsung lebih dari 3 minggu?",
	SymptomPhlegmGreen:         "Apakah dahak yang keluar kental dan berwarna hijau?",
	SymptomPhlegmBlood:         "Apakah dahak yang keluar berwarna merah atau bercampur darah?",
	SymptomBreathingDifficulty: "Apakah kucing Anda terlihat kesulitan bernapas?",
	SymptomFever:               "Apakah kucing Anda mengalami demam?",
	SymptomNightSweats:         "Apakah kucing Anda sering berkeringat di malam hari?",
	SymptomDiscomfort:          "Apakah kucing Anda terlihat tidak nyaman?",
	SymptomAppetiteLoss:        "Apakah nafsu makan kucing Anda berkurang?",
	SymptomWeightLoss:          "Apakah berat badan kucing Anda menurun?",
	SymptomYellowPhlegm:        "Apakah dahak yang keluar agak cair dan berwarna kuning seperti nanah?",
	SymptomBreathingSound:      "Apakah napas kucing Anda berbunyi seperti siulan atau desahan tinggi?",
	SymptomVomiting:            "Apakah kucing Anda mengalami muntah?",
	SymptomDiarrhea:            "Apakah kucing Anda mengalami diare?",
}

// SymptomKeys returns the questionnaire keys in presentation order.
func SymptomKeys() []SymptomKey {
	out := make([]SymptomKey, len(symptomKeys))
	copy(out, symptomKeys)
	return out
}

// Question returns the prompt shown for k, or "" for an unknown key.
func (k SymptomKey) Question() string {
	return symptomQuestions[k]
}

// Valid reports whether k is one of the fixed questionnaire keys.
func (k SymptomKey) Valid() bool {
	_, ok := symptomQuestions[k]
	return ok
}

// Answer is the tri-state reply to a single question.
type Answer int

const (
	Unanswered Answer = iota
	Yes
	No
)

// AnswerOf converts a boolean reply into an Answer.
func AnswerOf(v bool) Answer {
	if v {
		return Yes
	}
	return No
}

// Bool reports the boolean value and whether the question was answered.
func (a Answer) Bool() (value, ok bool) {
	switch a {
	case Yes:
		return true, true
	case No:
		return false, true
	}
	return false, false
}

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unanswered"
}
