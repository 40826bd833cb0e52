package entity

// Cooldown перезапускаемый таймер, ограничивающий частоту действия.
// Создаётся готовым: первое действие после появления не ждёт.
type Cooldown struct {
	duration float64
	elapsed  float64
}

// NewCooldown создаёт таймер длительностью duration секунд
func NewCooldown(duration float64) *Cooldown {
	return &Cooldown{duration: duration, elapsed: duration}
}

// Update продвигает таймер на dt секунд
func (c *Cooldown) Update(dt float64) {
	c.elapsed += dt
}

// IsReady сообщает, истёк ли таймер
func (c *Cooldown) IsReady() bool {
	return c.elapsed >= c.duration
}

// Reset перезапускает таймер
func (c *Cooldown) Reset() {
	c.elapsed = 0
}

// Duration возвращает длительность
func (c *Cooldown) Duration() float64 {
	return c.duration
}

// Remaining возвращает оставшееся время, не меньше нуля
func (c *Cooldown) Remaining() float64 {
	if r := c.duration - c.elapsed; r > 0 {
		return r
	}
	return 0
}
