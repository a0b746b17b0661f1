package models

// LoadStatistics pairs absolute hours with the share of a capacity.
type LoadStatistics struct {
	Absolute int     `json:"absolute"`
	Relative float64 `json:"relative"`
}

// TeacherLoad reports how many hours a teacher delivered in a period.
type TeacherLoad struct {
	TeacherID  string         `json:"teacher_id"`
	Name       string         `json:"name"`
	Statistics LoadStatistics `json:"statistics"`
}

// DisciplineProgress is the completed share of one discipline for a troop.
type DisciplineProgress struct {
	DisciplineID string  `json:"discipline_id"`
	Name         string  `json:"name"`
	Progress     float64 `json:"progress"`
}

// TroopProgress aggregates discipline progress for a troop at its term.
type TroopProgress struct {
	TroopID       string               `json:"troop_id"`
	Code          string               `json:"code"`
	TotalProgress float64              `json:"total_progress"`
	ByDisciplines []DisciplineProgress `json:"by_disciplines"`
}

// TermCourseLength splits a discipline term load into classroom and self-study hours.
type TermCourseLength struct {
	Term          int `json:"term"`
	Lessons       int `json:"lessons"`
	SelfEducation int `json:"self_education"`
}

// DisciplineCourseLength lists the per-term course length of a discipline.
type DisciplineCourseLength struct {
	DisciplineID string             `json:"discipline_id"`
	Discipline   string             `json:"discipline"`
	Terms        []TermCourseLength `json:"terms"`
}
