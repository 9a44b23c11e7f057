package search

// ScenarioWithMarkedCount builds a scenario whose marked set is the first
// markedCount indices of the space. Which indices are marked does not
// affect any statistic of the model, so catalog instances that only give a
// marked fraction map onto this canonical layout.
func ScenarioWithMarkedCount(spaceSize, markedCount int) (Scenario, error) {
	marked := make([]int, 0, max(markedCount, 0))
	for i := 0; i < markedCount; i++ {
		marked = append(marked, i)
	}

	return NewScenario(spaceSize, marked)
}
