package sexagenary

// MonthStem applies the Five Tigers rule (五虎遁): the 寅 month stem is fixed
// by the year stem and the remaining months follow in order.
func MonthStem(yearStem Stem, monthBranch Branch) Stem {
	start := (int(yearStem)%5)*2 + 2
	return Stem(mod(start+mod(int(monthBranch)-2, 12), 10))
}

// HourStem applies the Five Rats rule (五鼠遁) from the day stem.
func HourStem(dayStem Stem, hourBranch Branch) Stem {
	return Stem(mod((int(dayStem)%5)*2+int(hourBranch), 10))
}

// HourBranch buckets a clock hour. 23:00 belongs to 子 of the same date.
func HourBranch(hour int) Branch {
	if hour >= 23 || hour < 1 {
		return Zi
	}
	return Branch(((hour + 1) / 2) % 12)
}

// Embryo returns the conception pillar (胎元): month stem +1, month branch +3.
func Embryo(month Index) Index {
	i, _ := IndexOf(month.Stem().Add(1), month.Branch().Add(3))
	return i
}

// LifePalace returns the 命宫 pillar from the month and hour branches.
func LifePalace(yearStem Stem, monthBranch, hourBranch Branch) Index {
	sum := 14 - (palaceOrder(monthBranch) + palaceOrder(hourBranch))
	return palacePillar(yearStem, sum)
}

// BodyPalace returns the 身宫 pillar from the month and hour branches.
func BodyPalace(yearStem Stem, monthBranch, hourBranch Branch) Index {
	sum := palaceOrder(monthBranch) + palaceOrder(hourBranch) - 2
	return palacePillar(yearStem, sum)
}

// palaceOrder numbers branches from 寅 = 1 through 丑 = 12.
func palaceOrder(b Branch) int {
	if b >= Yin {
		return int(b) - 1
	}
	return int(b) + 11
}

func palacePillar(yearStem Stem, sum int) Index {
	order := mod(sum-1, 12) + 1
	var b Branch
	switch order {
	case 11:
		b = Zi
	case 12:
		b = Chou
	default:
		b = Branch(order + 1)
	}
	return MustIndex(MonthStem(yearStem, b), b)
}
