package hierarchy

// DefaultLevels covers the round labels seen on Hungarian, Slovak and English
// result pages.
func DefaultLevels() []Level {
	return []Level{
		{Rank: 0, Names: []string{"0.Forduló", "0. kolo", "Round 0"}},
		{Rank: 1, Names: []string{"Reményfutam után", "Reményfutam", "Opravné kolo", "Repechage"}},
		{Rank: 2, Names: []string{"Redance"}},
		{Rank: 3, Names: []string{"1.Forduló", "1. kolo", "1st Round", "Round 1"}},
		{Rank: 4, Names: []string{"2.Forduló", "2. kolo", "2nd Round", "Round 2"}},
		{Rank: 5, Names: []string{"3.Forduló", "3. kolo", "3rd Round", "Round 3"}},
		{Rank: 6, Names: []string{"4.Forduló", "4. kolo", "4th Round", "Round 4"}},
		{Rank: 7, Names: []string{"5.Forduló", "5. kolo", "5th Round", "Round 5"}},
		{Rank: 8, Names: []string{"6.Forduló", "6. kolo", "6th Round", "Round 6"}},
		{Rank: 9, Names: []string{"7.Forduló", "7. kolo", "Round 7"}},
		{Rank: 10, Names: []string{"8.Forduló", "8. kolo", "Round 8"}},
		{Rank: 11, Names: []string{"9.Forduló", "9. kolo", "Round 9"}},
		{Rank: 12, Names: []string{"10.Forduló", "10. kolo", "Round 10"}},
		{Rank: 13, Names: []string{"11.Forduló", "11. kolo", "Round 11"}},
		{Rank: 14, Names: []string{"Negyeddöntő", "Štvrťfinále", "Quarterfinal", "Quarter-final"}},
		{Rank: 15, Names: []string{"Elődöntő", "Középdöntő", "Semifinále", "Semifinal", "Semi-final"}},
		{Rank: 16, Names: []string{"Döntő", "Finále", "Final"}},
	}
}

// Default builds the hierarchy from DefaultLevels.
func Default() *Hierarchy {
	h, err := New(DefaultLevels())
	if err != nil {
		panic(err)
	}
	return h
}
