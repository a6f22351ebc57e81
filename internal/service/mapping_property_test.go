package service

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"import-wizard-api/internal/domain"
)

// checkBijection reports whether the mapping set binds every source column
// and every target key at most once
func checkBijection(session *domain.ImportSession) bool {
	columns := map[string]bool{}
	targets := map[domain.FieldKey]bool{}
	for _, m := range session.Mappings {
		if columns[m.SourceColumn] || targets[m.TargetField] {
			return false
		}
		columns[m.SourceColumn] = true
		targets[m.TargetField] = true
	}
	return true
}

// For any set of source columns, the resolved mapping set is a partial
// bijection: no column and no target field bound twice
func TestProperty_ResolveBijection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// 기본 카탈로그 라벨과 겹치는 이름, 겹치지 않는 이름을 섞어 만든다
	columnGen := gen.SliceOf(gen.OneConstOf(
		"회사명", "이름", "이메일", "전화번호", "웹 주소", "주소",
		"name", "email", "phone", "메모", "비고", "담당 부서",
	))

	properties.Property("resolved mappings form a partial bijection", prop.ForAll(
		func(rawColumns []string) bool {
			// 업로드 파서가 하듯 중복 열 이름은 미리 걸러낸다
			seen := map[string]bool{}
			var columns []string
			for _, c := range rawColumns {
				if !seen[c] {
					seen[c] = true
					columns = append(columns, c)
				}
			}
			if len(columns) == 0 {
				return true
			}

			svc := newMappingService(&MockSalesmapClient{}, &MockOpenAIClient{})
			session := newTestSession(
				[]domain.ObjectType{domain.ObjectTypeCompany, domain.ObjectTypePeople},
				columns, []domain.Row{{}})

			if err := svc.Resolve(context.Background(), "key", session); err != nil {
				t.Logf("Resolve failed for columns %v: %v", columns, err)
				return false
			}
			return checkBijection(session)
		},
		columnGen,
	))

	properties.TestingRun(t)
}

// Resolving twice never adds or changes bindings: the second pass only
// preserves what the first produced
func TestProperty_ResolveIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	columnGen := gen.SliceOf(gen.OneConstOf(
		"회사명", "이름", "이메일", "전화번호", "직원 수", "포지션",
	))

	properties.Property("second resolve leaves the mapping set unchanged", prop.ForAll(
		func(rawColumns []string) bool {
			seen := map[string]bool{}
			var columns []string
			for _, c := range rawColumns {
				if !seen[c] {
					seen[c] = true
					columns = append(columns, c)
				}
			}
			if len(columns) == 0 {
				return true
			}

			svc := newMappingService(&MockSalesmapClient{}, &MockOpenAIClient{})
			session := newTestSession(
				[]domain.ObjectType{domain.ObjectTypeCompany, domain.ObjectTypePeople},
				columns, []domain.Row{{}})

			ctx := context.Background()
			if err := svc.Resolve(ctx, "key", session); err != nil {
				return false
			}
			first := make([]domain.FieldMapping, len(session.Mappings))
			copy(first, session.Mappings)

			if err := svc.Resolve(ctx, "key", session); err != nil {
				return false
			}
			if len(session.Mappings) != len(first) {
				t.Logf("mapping count changed: %d -> %d", len(first), len(session.Mappings))
				return false
			}
			for i, m := range session.Mappings {
				if m != first[i] {
					t.Logf("mapping changed on re-resolve: %+v -> %+v", first[i], m)
					return false
				}
			}
			return true
		},
		columnGen,
	))

	properties.TestingRun(t)
}

// Any sequence of SetMapping/RemoveMapping calls keeps the bijection intact;
// conflicting calls are rejected without corrupting existing bindings
func TestProperty_SetMappingKeepsBijection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	fieldIDs := []string{"name", "address", "phone", "website", "employee_count", "owner"}

	properties.Property("manual mapping operations preserve the bijection", prop.ForAll(
		func(ops []int) bool {
			columns := []string{"열A", "열B", "열C", "열D"}
			svc := newMappingService(&MockSalesmapClient{}, &MockOpenAIClient{})
			session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany}, columns, []domain.Row{{}})
			ctx := context.Background()

			for _, op := range ops {
				column := columns[op%len(columns)]
				if op%7 == 0 {
					svc.RemoveMapping(session, column)
				} else {
					target := domain.FieldKey{
						ObjectType: domain.ObjectTypeCompany,
						FieldID:    fieldIDs[op%len(fieldIDs)],
					}
					// 충돌 거부는 정상 동작이다
					_ = svc.SetMapping(ctx, "key", session, column, target)
				}
				if !checkBijection(session) {
					t.Logf("bijection broken after op %d on %s", op, column)
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

// Ratcliff/Obershelp similarity is bounded to [0,1], 1 exactly on equal
// strings, and 0 when the strings share no characters at all
func TestProperty_StringSimilarity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("similarity stays within [0,1]", prop.ForAll(
		func(a, b string) bool {
			s := stringSimilarity(a, b)
			if s < 0 || s > 1 {
				t.Logf("similarity out of range: %v for %q/%q", s, a, b)
				return false
			}
			return true
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("equal strings have similarity 1", prop.ForAll(
		func(a string) bool {
			return stringSimilarity(a, a) == 1.0
		},
		gen.AnyString(),
	))

	properties.Property("disjoint alphabets have similarity 0", prop.ForAll(
		func(n1, n2 int) bool {
			a := strings.Repeat("a", n1+1)
			b := strings.Repeat("b", n2+1)
			return stringSimilarity(a, b) == 0.0
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}
