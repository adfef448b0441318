package expansion

import "github.com/siherrmann/summer/model"

// Evaluate measures how well an expansion matches the entities found in the
// answers. A sentence counts as hit when it contains at least hitThreshold
// expanded entities.
func Evaluate(result *Result, records []model.SentenceEntityRecord, hitThreshold int) model.ExpansionReport {
	answerEntities := model.NewEntitySet()
	totalEntities := 0
	hitSentences := 0
	for _, record := range records {
		answerEntities.AddAll(record.Entities)
		totalEntities += record.Entities.Len()

		hits := 0
		for _, e := range record.Entities.Items() {
			if result.Expanded.Has(e) {
				hits++
			}
		}
		if hits >= hitThreshold {
			hitSentences++
		}
	}

	report := model.ExpansionReport{
		ExpandedCount:     result.Expanded.Len(),
		HitCount:          result.Expanded.Entities().Intersect(answerEntities).Len(),
		AnswerEntityCount: answerEntities.Len(),
		SentenceCount:     len(records),
		HitSentenceCount:  hitSentences,
		SynonymCount:      result.Synonyms.Len(),
	}
	if report.ExpandedCount > 0 {
		report.HitRatio = float64(report.HitCount) / float64(report.ExpandedCount)
	}
	if report.SentenceCount > 0 {
		report.AvgEntities = float64(totalEntities) / float64(report.SentenceCount)
	}
	return report
}
