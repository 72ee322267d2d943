package match

// History navigation is only available once the game has ended. Each method
// returns whether the displayed position changed.

func (m *Match) Back() bool    { return m.navigate(m.session.StepBack) }
func (m *Match) Forward() bool { return m.navigate(m.session.StepForward) }
func (m *Match) First() bool   { return m.navigate(m.session.GoToStart) }
func (m *Match) Last() bool    { return m.navigate(m.session.GoToEnd) }

// Jump shows the position after the move at nodeIndex.
func (m *Match) Jump(nodeIndex int) bool {
	return m.navigate(func() bool { return m.session.Select(nodeIndex) })
}

func (m *Match) navigate(step func() bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.InProgress() {
		m.notify("notice.navigation.in_progress", nil)
		return false
	}
	return step()
}
