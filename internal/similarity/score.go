package similarity

import "github.com/user/moviegraph/internal/graph"

// 评分公式中的系数：两项 Jaccard 之和除以 4，目标电影评分除以 20
const (
	overlapDivisor = 4.0
	ratingDivisor  = 20.0
)

// Jaccard |A∩B| / |A∪B|，两个集合都为空时为 0
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Score 计算 source 到 target 的相似度
//
// 只使用 target 的评分，因此 Score(a, b) 与 Score(b, a) 一般不相等。
// 未设置评分按 0 处理。
func Score(source, target *graph.Movie) float64 {
	return scoreSets(source.People(), source.Tags(), target)
}

func scoreSets(people, tags map[string]struct{}, target *graph.Movie) float64 {
	rating, _ := target.Rating()
	return (Jaccard(people, target.People())+Jaccard(tags, target.Tags()))/overlapDivisor +
		rating/ratingDivisor
}
