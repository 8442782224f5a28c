package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gymdesk/internal/domain/model"
)

// Header aliases per member field. The first alias with a non-empty cell
// wins.
var (
	nameCols     = []string{"이름", "성명", "회원명", "Name"}
	genderCols   = []string{"성별", "Gender"}
	codeCols     = []string{"출결번호", "핀번호", "출결번호(핀번호)", "고유번호", "비밀번호", "PIN"}
	schoolCols   = []string{"학교", "재학중인학교", "School"}
	gradeCols    = []string{"학년", "Grade"}
	phoneCols    = []string{"원생전화번호", "전화번호", "휴대폰", "연락처", "원생연락처", "H.P", "Mobile", "전화", "Phone"}
	guardianCols = []string{"보호자연락처", "부모님전화번호", "부모님연락처", "보호자휴대폰", "비상연락처", "Parent"}
	birthCols    = []string{"생일", "생년월일", "Birthday"}
	joinedCols   = []string{"입학일", "등록일", "입학일(등록일)", "가입일", "Joined"}
	dueDayCols   = []string{"수납청구일", "결제일", "청구일", "납부일"}
	addressCols  = []string{"주소", "집주소", "거주지", "Address"}
	address1Cols = []string{"주소1", "기본주소"}
	address2Cols = []string{"주소2", "상세주소"}
)

// record is one data row keyed by trimmed header.
type record map[string]string

func (r record) get(aliases []string) string {
	for _, a := range aliases {
		if v := strings.TrimSpace(r[a]); v != "" {
			return v
		}
	}
	return ""
}

// draft maps a record onto a member draft. ok is false when the row has
// no name.
func (r record) draft(row int) (d model.MemberDraft, ok bool) {
	d.Row = row
	d.Name = r.get(nameCols)
	if d.Name == "" {
		return d, false
	}
	d.Gender = parseGender(r.get(genderCols))
	d.AccessCode = r.get(codeCols)
	d.School = r.get(schoolCols)
	d.Grade = r.get(gradeCols)
	d.Phone = r.get(phoneCols)
	d.GuardianPhone = r.get(guardianCols)
	d.BirthDate = parseDate(r.get(birthCols))
	d.JoinedAt = parseDate(r.get(joinedCols))
	d.PaymentDueDay = parseDueDay(r.get(dueDayCols))

	d.Address = r.get(addressCols)
	if d.Address == "" {
		d.Address = strings.TrimSpace(r.get(address1Cols) + " " + r.get(address2Cols))
	}
	return d, true
}

func parseGender(s string) model.Gender {
	if strings.Contains(s, "여") || strings.EqualFold(s, "f") || strings.EqualFold(s, "female") {
		return model.GenderFemale
	}
	return model.GenderMale
}

// parseDueDay keeps the digits of values like "25일". Anything without
// digits yields nil.
func parseDueDay(s string) *int {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return nil
	}
	return &n
}

var dateLayouts = []string{"2006-1-2", "2006-01-02", "06-1-2", "2006-1-2 15:04:05", time.RFC3339}

// parseDate accepts YYYYMMDD, Excel serial numbers and dates separated by
// '.', '/' or '-'. Unparseable values yield nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) == 8 && isDigits(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return &t
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return nil
		}
		d := model.DateOf(t)
		return &d
	}
	norm := strings.NewReplacer(".", "-", "/", "-", " ", "").Replace(s)
	norm = strings.TrimSuffix(norm, "-")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			d := model.DateOf(t)
			return &d
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
